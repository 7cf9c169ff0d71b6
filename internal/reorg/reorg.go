// Package reorg implements bounded-depth reorg detection and rollback
// against a trusted header oracle: a simpler model than a fork-choice
// chain-replay, since this indexer never produces blocks of its own and
// only ever needs to re-converge with whatever bitcoind currently
// considers the best chain.
package reorg

import (
	"context"
	"errors"
	"fmt"

	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// MaxRecoverableDepth is the deepest reorg this indexer can roll back
// without operator intervention.
const MaxRecoverableDepth = 6

// ErrUnrecoverable signals a reorg deeper than MaxRecoverableDepth, or
// one where the oracle has no record of a height the indexer needs to
// compare against. The caller must halt; recovering means re-indexing
// from a checkpoint older than anything this package tracks.
var ErrUnrecoverable = errors.New("reorg: unrecoverable")

// HeaderOracle is the trusted external source of canonical block hashes
// the controller compares stored headers against. internal/rpc.Client
// satisfies this by its BlockHash method alone.
type HeaderOracle interface {
	BlockHash(ctx context.Context, height uint64) (types.BlockHash, error)
}

// Status is the outcome of a Detect call.
type Status int

const (
	// InSync means the incoming block extends the indexed tip; no
	// rollback is needed.
	InSync Status = iota
	// Recoverable means a reorg of Depth blocks was found within
	// MaxRecoverableDepth; Height is the height about to be indexed.
	Recoverable
	// Unrecoverable means no matching ancestor was found within
	// MaxRecoverableDepth, or a required header was missing.
	Unrecoverable
)

// Result is what Detect returns.
type Result struct {
	Status Status
	Height uint64 // the height about to be indexed (h in spec terms)
	Depth  uint64 // number of blocks to roll back, set when Status == Recoverable
}

// Controller runs reorg detection and rollback against a Store's
// persisted BlockHeader/ChangeRecord entries.
type Controller struct {
	store  *runes.Store
	oracle HeaderOracle
}

// NewController builds a Controller over store, consulting oracle for
// canonical hashes during detection.
func NewController(store *runes.Store, oracle HeaderOracle) *Controller {
	return &Controller{store: store, oracle: oracle}
}

// Detect implements §4.5's detection algorithm: indexPrev is the hash
// recorded for height h-1 in the store; nodePrev is the prev_blockhash
// field of the block about to be indexed at height h.
func (c *Controller) Detect(ctx context.Context, indexPrev types.Hash, nodePrev types.Hash, h uint64) (Result, error) {
	if indexPrev == nodePrev {
		return Result{Status: InSync, Height: h}, nil
	}

	for d := uint64(1); d <= MaxRecoverableDepth; d++ {
		if h < d {
			break
		}
		height := h - d
		hdr, err := c.store.GetBlockHeader(height)
		if err != nil {
			if err == runes.ErrNotFound {
				return Result{Status: Unrecoverable, Height: h}, nil
			}
			return Result{}, fmt.Errorf("reorg: load header at %d: %w", height, err)
		}
		a := types.Hash(hdr.BlockHash())

		b, err := c.oracle.BlockHash(ctx, height)
		if err != nil {
			return Result{Status: Unrecoverable, Height: h}, nil
		}

		if a == b {
			return Result{Status: Recoverable, Height: h, Depth: d}, nil
		}
	}

	return Result{Status: Unrecoverable, Height: h}, nil
}

// Rollback reverses the effects of heights [height-depth+1, height-1] per
// §4.5, iterating from height-1 down to height-depth+1 so each
// ChangeRecord is undone in LIFO order. After Rollback the latest
// intact stored height is height-depth.
func (c *Controller) Rollback(result Result) error {
	if result.Status != Recoverable {
		return fmt.Errorf("reorg: Rollback called on non-recoverable result")
	}
	if result.Depth == 0 {
		return fmt.Errorf("reorg: Rollback called with zero depth")
	}

	for h := result.Height - 1; h >= result.Height-result.Depth+1; h-- {
		if err := c.rollbackHeight(h); err != nil {
			return fmt.Errorf("reorg: rollback height %d: %w", h, err)
		}
		if h == 0 {
			break
		}
	}
	return nil
}

// rollbackHeight reverses one height's ChangeRecord, in the order §4.5
// specifies, then deletes the records at that height.
func (c *Controller) rollbackHeight(h uint64) error {
	change, err := c.store.GetChangeRecord(h)
	if err != nil {
		return fmt.Errorf("load change record: %w", err)
	}
	w := c.store.DirectWriter()

	for _, r := range change.RemovedOutpoints {
		if err := c.store.PutOutpointBalances(w, r.OutPoint, r.Balances); err != nil {
			return fmt.Errorf("restore outpoint balances %s: %w", r.OutPoint, err)
		}
		if err := c.store.PutOutpointHeight(w, r.OutPoint, r.Height); err != nil {
			return fmt.Errorf("restore outpoint height %s: %w", r.OutPoint, err)
		}
	}

	for _, o := range change.AddedOutpoints {
		if err := c.store.DeleteOutpointBalances(w, o); err != nil {
			return fmt.Errorf("delete added outpoint balances %s: %w", o, err)
		}
		if err := c.store.DeleteOutpointHeight(w, o); err != nil {
			return fmt.Errorf("delete added outpoint height %s: %w", o, err)
		}
	}

	for id, preBurned := range change.Burned {
		entry, err := c.store.GetRuneEntry(id)
		if err != nil {
			return fmt.Errorf("load entry %s for burned rollback: %w", id, err)
		}
		entry.Burned = preBurned
		if err := c.store.PutRuneEntry(w, id, entry); err != nil {
			return fmt.Errorf("persist burned rollback %s: %w", id, err)
		}
	}

	for id, preMints := range change.Mints {
		entry, err := c.store.GetRuneEntry(id)
		if err != nil {
			return fmt.Errorf("load entry %s for mints rollback: %w", id, err)
		}
		entry.Mints = preMints
		if err := c.store.PutRuneEntry(w, id, entry); err != nil {
			return fmt.Errorf("persist mints rollback %s: %w", id, err)
		}
	}

	for _, a := range change.AddedRunes {
		if err := c.store.DeleteRuneByName(w, &a.Name.Rune); err != nil {
			return fmt.Errorf("delete rune by name %s: %w", a.ID, err)
		}
		if err := c.store.DeleteRuneEntry(w, a.ID); err != nil {
			return fmt.Errorf("delete rune entry %s: %w", a.ID, err)
		}
		if err := c.store.DeleteEtching(w, a.Txid); err != nil {
			return fmt.Errorf("delete etching %s: %w", a.Txid, err)
		}
	}

	if err := c.store.DeleteChangeRecord(w, h); err != nil {
		return fmt.Errorf("delete change record: %w", err)
	}
	if err := c.store.DeleteStatRunes(w, h); err != nil {
		return fmt.Errorf("delete stat runes: %w", err)
	}
	if err := c.store.DeleteStatReservedRunes(w, h); err != nil {
		return fmt.Errorf("delete stat reserved runes: %w", err)
	}
	if err := c.store.DeleteBlockHeader(w, h); err != nil {
		return fmt.Errorf("delete block header: %w", err)
	}

	return nil
}
