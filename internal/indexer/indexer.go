// Package indexer implements the per-block orchestration loop: fetch a
// block from the node, check for a reorg, replay its transactions
// through the rune state machine, and commit the result atomically.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/internal/artifact"
	"github.com/klingon-tech/runeindex/internal/codec"
	"github.com/klingon-tech/runeindex/internal/log"
	"github.com/klingon-tech/runeindex/internal/reorg"
	"github.com/klingon-tech/runeindex/internal/rpc"
	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// Indexing errors.
var (
	ErrWrongHash       = errors.New("indexer: fetched block does not match requested hash")
	ErrWrongMerkleRoot = errors.New("indexer: block fails merkle root check")
	ErrUnrecoverable   = errors.New("indexer: reorg exceeds recoverable depth")
	ErrNodeNotCaughtUp = errors.New("indexer: node has no block at the next height yet")
)

// PruneDepth mirrors reorg.MaxRecoverableDepth: change records and stat
// entries older than this are no longer needed once a block commits,
// since no reorg can reach back further than that.
const PruneDepth = reorg.MaxRecoverableDepth

// Indexer drives one block at a time through Store/Updater/Controller.
type Indexer struct {
	store       *runes.Store
	client      rpc.Client
	reorgCtl    *reorg.Controller
	oracle      runes.CommitOracle
	startHeight uint64
}

// New builds an Indexer. startHeight is the first height this indexer
// will ever fetch when the store has no recorded tip (the network's
// Runes activation height). client doubles as both the block-fetching
// collaborator and, via its BlockHeight/PrevOutput methods, the
// commitment oracle the rune updater needs for etching verification.
// Reorg detection is cross-checked against client's own BlockHash
// method; use NewWithHeaderOracle to cross-check against a second,
// independently operated node instead.
func New(store *runes.Store, client rpc.Client, startHeight uint64) *Indexer {
	return NewWithHeaderOracle(store, client, client, startHeight)
}

// NewWithHeaderOracle builds an Indexer whose reorg controller
// consults headerOracle for canonical block hashes rather than client
// itself. The in-sync check compares the incoming block's prev-hash with
// the stored header and does not consult headerOracle; once they differ,
// the fork point is located by comparing stored headers with
// headerOracle's hashes, so passing a second, independently operated
// node here keeps that search from relying on the primary node alone.
func NewWithHeaderOracle(store *runes.Store, client rpc.Client, headerOracle reorg.HeaderOracle, startHeight uint64) *Indexer {
	return &Indexer{
		store:       store,
		client:      client,
		reorgCtl:    reorg.NewController(store, headerOracle),
		oracle:      client,
		startHeight: startHeight,
	}
}

// NextHeight returns the height this indexer will attempt on the next
// ProcessNext call.
func (ix *Indexer) NextHeight() uint64 {
	tip, ok, err := ix.store.GetTipHeight()
	if err != nil || !ok {
		return ix.startHeight
	}
	return tip + 1
}

// ProcessNext implements §4.4's per-block sequence for the next
// unindexed height. When the node has no block at that height yet,
// ErrNodeNotCaughtUp is returned so the scheduler can distinguish
// "nothing to do" from a real failure.
func (ix *Indexer) ProcessNext(ctx context.Context) error {
	h := ix.NextHeight()
	stop := log.Benchmark(fmt.Sprintf("index block %d", h))
	defer stop()

	blockHash, err := ix.client.BlockHash(ctx, h)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return ErrNodeNotCaughtUp
		}
		return fmt.Errorf("indexer: get block hash at %d: %w", h, err)
	}

	block, err := ix.client.Block(ctx, blockHash)
	if err != nil {
		return fmt.Errorf("indexer: get block %s: %w", blockHash, err)
	}

	if types.Hash(block.Header.BlockHash()) != blockHash {
		return fmt.Errorf("%w: requested %s", ErrWrongHash, blockHash)
	}
	if !checkMerkleRoot(block) {
		return fmt.Errorf("%w: height %d", ErrWrongMerkleRoot, h)
	}

	indexPrev, err := ix.indexedPrevHash(h)
	if err != nil {
		return err
	}
	nodePrev := types.Hash(block.Header.PrevBlock)

	result, err := ix.reorgCtl.Detect(ctx, indexPrev, nodePrev, h)
	if err != nil {
		return fmt.Errorf("indexer: reorg detection: %w", err)
	}
	switch result.Status {
	case reorg.Unrecoverable:
		log.Indexer.Error().Uint64("height", h).Msg("reorg exceeds recoverable depth, halting")
		return fmt.Errorf("%w: at height %d", ErrUnrecoverable, h)
	case reorg.Recoverable:
		log.Indexer.Warn().Uint64("height", result.Height).Uint64("depth", result.Depth).Msg("rolling back reorg")
		if err := ix.reorgCtl.Rollback(result); err != nil {
			return fmt.Errorf("indexer: rollback: %w", err)
		}
		w := ix.store.DirectWriter()
		if err := ix.store.SetTipHeight(w, result.Height-result.Depth); err != nil {
			return fmt.Errorf("indexer: set tip after rollback: %w", err)
		}
		return nil
	}

	return ix.applyBlock(ctx, h, block)
}

// indexedPrevHash returns the hash of the block this indexer has
// recorded at height h-1, or the zero hash if h is the configured
// genesis/activation height (no predecessor tracked).
func (ix *Indexer) indexedPrevHash(h uint64) (types.Hash, error) {
	if h <= ix.startHeight {
		return types.Hash{}, nil
	}
	hdr, err := ix.store.GetBlockHeader(h - 1)
	if err != nil {
		if err == runes.ErrNotFound {
			return types.Hash{}, nil
		}
		return types.Hash{}, fmt.Errorf("indexer: load header at %d: %w", h-1, err)
	}
	return types.Hash(hdr.BlockHash()), nil
}

// applyBlock runs every transaction in block through the rune updater,
// stages the result in one batch, and commits it — the header write
// and tip bump happen last, inside the same batch, so a crash before
// Commit leaves height h untouched and is idempotently retried next
// tick (every write this function performs is re-derivable from the
// block and prior state alone).
func (ix *Indexer) applyBlock(ctx context.Context, h uint64, block *wire.MsgBlock) error {
	prevStatRunes, prevStatReserved, err := ix.prevStats(h)
	if err != nil {
		return err
	}

	var w runes.Writer
	if batch := ix.store.NewBatch(); batch != nil {
		w = batch
	} else {
		w = ix.store.DirectWriter()
	}

	u := runes.NewUpdater(ix.store, h, uint64(block.Header.Timestamp.Unix()), prevStatRunes, prevStatReserved, ix.oracle)

	for i, tx := range block.Transactions {
		txid := types.Hash(tx.TxHash())
		art, err := artifact.Decode(tx)
		if err != nil {
			return fmt.Errorf("indexer: decode artifact tx %d: %w", i, err)
		}
		if err := u.Update(ctx, w, uint32(i), tx, txid, art); err != nil {
			return fmt.Errorf("indexer: apply tx %d (%s): %w", i, txid, err)
		}
	}

	if err := u.FlushBurns(w); err != nil {
		return fmt.Errorf("indexer: flush burns: %w", err)
	}

	if err := ix.store.PutStatRunes(w, h, u.StatRunes()); err != nil {
		return fmt.Errorf("indexer: persist stat runes: %w", err)
	}
	if err := ix.store.PutStatReservedRunes(w, h, u.StatReservedRunes()); err != nil {
		return fmt.Errorf("indexer: persist stat reserved runes: %w", err)
	}
	if err := ix.store.PutChangeRecord(w, h, u.ChangeRecord()); err != nil {
		return fmt.Errorf("indexer: persist change record: %w", err)
	}
	if err := ix.store.PutBlockHeader(w, h, &block.Header); err != nil {
		return fmt.Errorf("indexer: persist block header: %w", err)
	}
	if err := ix.store.SetTipHeight(w, h); err != nil {
		return fmt.Errorf("indexer: set tip: %w", err)
	}

	if b, ok := w.(interface{ Commit() error }); ok {
		if err := b.Commit(); err != nil {
			return fmt.Errorf("indexer: commit block %d: %w", h, err)
		}
	}

	ix.prune(h)

	log.Indexer.Info().Uint64("height", h).Int("txs", len(block.Transactions)).Msg("indexed block")
	return nil
}

// prune deletes ChangeRecord/StatRunes/StatReservedRunes/BlockHeader
// entries older than what any future reorg rollback could still need.
// Pruning failures are logged, not fatal — stale entries beyond the
// recoverable window are harmless clutter, not correctness bugs.
func (ix *Indexer) prune(h uint64) {
	if h < PruneDepth {
		return
	}
	prune := h - PruneDepth
	w := ix.store.DirectWriter()
	if err := ix.store.DeleteChangeRecord(w, prune); err != nil {
		log.Indexer.Warn().Uint64("height", prune).Err(err).Msg("prune change record failed")
	}
	if err := ix.store.DeleteStatRunes(w, prune); err != nil {
		log.Indexer.Warn().Uint64("height", prune).Err(err).Msg("prune stat runes failed")
	}
	if err := ix.store.DeleteStatReservedRunes(w, prune); err != nil {
		log.Indexer.Warn().Uint64("height", prune).Err(err).Msg("prune stat reserved runes failed")
	}
	if err := ix.store.DeleteBlockHeader(w, prune); err != nil {
		log.Indexer.Warn().Uint64("height", prune).Err(err).Msg("prune block header failed")
	}
}

// prevStats loads the cumulative rune counts carried forward from
// height h-1, or zero at the genesis/activation height.
func (ix *Indexer) prevStats(h uint64) (statRunes, statReservedRunes uint64, err error) {
	if h <= ix.startHeight {
		return 0, 0, nil
	}
	statRunes, err = ix.store.GetStatRunes(h - 1)
	if err != nil {
		if err == runes.ErrNotFound {
			statRunes = 0
		} else {
			return 0, 0, fmt.Errorf("indexer: load stat runes at %d: %w", h-1, err)
		}
	}
	statReservedRunes, err = ix.store.GetStatReservedRunes(h - 1)
	if err != nil {
		if err == runes.ErrNotFound {
			statReservedRunes = 0
		} else {
			return 0, 0, fmt.Errorf("indexer: load stat reserved runes at %d: %w", h-1, err)
		}
	}
	return statRunes, statReservedRunes, nil
}

// checkMerkleRoot recomputes block's merkle root from its transaction
// ids and compares it against the header's claimed value.
func checkMerkleRoot(block *wire.MsgBlock) bool {
	txids := make([]types.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		txids[i] = types.Hash(tx.TxHash())
	}
	computed := codec.ComputeMerkleRoot(txids)
	return computed == types.Hash(block.Header.MerkleRoot)
}
