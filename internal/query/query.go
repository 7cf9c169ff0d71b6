// Package query implements the read-only lookup surface §6 names: the
// only part of the indexer another process is meant to call directly.
// It composes the persisted maps; it never mutates them.
package query

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// Errors the facade surfaces to callers, per §7's error kinds. RPC,
// verification, and internal mint errors never reach this layer — those
// are retried or logged inside the indexer/scheduler, not surfaced here.
// ErrInvalidArgument and ErrNotEnoughConfirmations are declared for
// whatever wire layer embeds this facade (argument parsing and
// confirmation-floor policy are both query-time result shaping, kept out
// of this package's scope) and are not raised by Facade itself.
var (
	ErrInvalidArgument        = errors.New("query: invalid argument")
	ErrRuneNotFound           = errors.New("query: rune not found")
	ErrOutPointNotFound       = errors.New("query: outpoint not found")
	ErrNoBlocksIndexed        = errors.New("query: no blocks indexed yet")
	ErrTooManyOutpoints       = errors.New("query: outpoint batch exceeds ceiling")
	ErrNotEnoughConfirmations = errors.New("query: required confirmations not met")
)

// MaxBatchOutpoints is the caller-visible ceiling on a single Balances
// batch request.
const MaxBatchOutpoints = 64

// Facade answers read-only lookups against a Store. It holds no state of
// its own; every call re-reads the store, so callers always see whatever
// the indexer has most recently committed.
type Facade struct {
	store *runes.Store
}

// New builds a Facade over store.
func New(store *runes.Store) *Facade {
	return &Facade{store: store}
}

// LatestBlock returns the indexer's current tip: the height of the most
// recently committed block and its hash.
func (f *Facade) LatestBlock() (height uint64, hash types.Hash, err error) {
	h, ok, err := f.store.GetTipHeight()
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("query: latest block: %w", err)
	}
	if !ok {
		return 0, types.Hash{}, ErrNoBlocksIndexed
	}
	hdr, err := f.store.GetBlockHeader(h)
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("query: load header at tip %d: %w", h, err)
	}
	return h, types.Hash(hdr.BlockHash()), nil
}

// Etching resolves an etching transaction id to the RuneId it created
// and that rune's current entry.
func (f *Facade) Etching(txid types.Txid) (types.RuneId, *types.RuneEntry, error) {
	name, err := f.store.GetEtching(txid)
	if err != nil {
		if err == runes.ErrNotFound {
			return types.RuneId{}, nil, ErrRuneNotFound
		}
		return types.RuneId{}, nil, fmt.Errorf("query: etching %s: %w", txid, err)
	}
	id, err := f.store.GetRuneByName(name)
	if err != nil {
		return types.RuneId{}, nil, fmt.Errorf("query: etching %s: rune-by-name lookup: %w", txid, err)
	}
	entry, err := f.RuneEntry(id)
	if err != nil {
		return types.RuneId{}, nil, err
	}
	return id, entry, nil
}

// RuneEntry looks up a rune's metadata by id.
func (f *Facade) RuneEntry(id types.RuneId) (*types.RuneEntry, error) {
	entry, err := f.store.GetRuneEntry(id)
	if err != nil {
		if err == runes.ErrNotFound {
			return nil, ErrRuneNotFound
		}
		return nil, fmt.Errorf("query: rune entry %s: %w", id, err)
	}
	return entry, nil
}

// Balances lists every rune balance held at an outpoint.
func (f *Facade) Balances(o types.OutPoint) ([]types.RuneBalance, error) {
	balances, err := f.store.GetOutpointBalances(o)
	if err != nil {
		if err == runes.ErrNotFound {
			return nil, ErrOutPointNotFound
		}
		return nil, fmt.Errorf("query: balances %s: %w", o, err)
	}
	return balances, nil
}

// OutpointHeight returns the height at which an outpoint's balances were
// recorded.
func (f *Facade) OutpointHeight(o types.OutPoint) (uint64, error) {
	height, err := f.store.GetOutpointHeight(o)
	if err != nil {
		if err == runes.ErrNotFound {
			return 0, ErrOutPointNotFound
		}
		return 0, fmt.Errorf("query: outpoint height %s: %w", o, err)
	}
	return height, nil
}

// BalancesBatch resolves Balances for up to MaxBatchOutpoints outpoints
// in one call. Missing outpoints are simply absent from the result
// rather than failing the whole batch — only a caller-side argument
// error (an oversized batch) aborts it.
func (f *Facade) BalancesBatch(outpoints []types.OutPoint) (map[types.OutPoint][]types.RuneBalance, error) {
	if len(outpoints) > MaxBatchOutpoints {
		return nil, fmt.Errorf("%w: %d outpoints requested, ceiling is %d", ErrTooManyOutpoints, len(outpoints), MaxBatchOutpoints)
	}
	out := make(map[types.OutPoint][]types.RuneBalance, len(outpoints))
	for _, o := range outpoints {
		balances, err := f.store.GetOutpointBalances(o)
		if err != nil {
			if err == runes.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("query: balances batch %s: %w", o, err)
		}
		out[o] = balances
	}
	return out, nil
}

// FormatAmount renders amount under divisibility decimal places,
// equivalent to the original implementation's display-only Pile
// formatting: divisibility digits always shown, zero-padded, with the
// decimal point omitted entirely when divisibility is 0.
func FormatAmount(amount *uint256.Int, divisibility uint8) string {
	if divisibility == 0 {
		return amount.Dec()
	}

	s := amount.Dec()
	for len(s) <= int(divisibility) {
		s = "0" + s
	}
	cut := len(s) - int(divisibility)
	whole, frac := s[:cut], s[cut:]
	return whole + "." + frac
}
