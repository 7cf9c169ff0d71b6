package runes

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// MintErrorKind distinguishes why a mint attempt failed. These are
// logic-internal outcomes, not runtime errors: a failed mint means the
// transaction's mint request is simply void, not that indexing failed.
type MintErrorKind int

const (
	MintErrorUnmintable MintErrorKind = iota
	MintErrorStart
	MintErrorEnd
	MintErrorCap
)

// MintError reports why mintable rejected a mint attempt. Height carries
// the start/end boundary for Start/End errors and Bound carries the cap
// for Cap errors; neither is set for Unmintable.
type MintError struct {
	Kind  MintErrorKind
	Bound *uint256.Int // set for Cap
	Height uint64       // set for Start/End
}

func (e *MintError) Error() string {
	switch e.Kind {
	case MintErrorUnmintable:
		return "rune has no mint terms"
	case MintErrorStart:
		return fmt.Sprintf("mint not yet open (starts at height %d)", e.Height)
	case MintErrorEnd:
		return fmt.Sprintf("mint window closed (ended at height %d)", e.Height)
	case MintErrorCap:
		return fmt.Sprintf("mint cap of %s reached", e.Bound)
	default:
		return "mint error"
	}
}

var errUnmintable = &MintError{Kind: MintErrorUnmintable}

// Start returns the inclusive height at which entry's mint window opens,
// and whether the window has any start bound at all.
func Start(entry *types.RuneEntry) (uint64, bool) {
	if entry.Terms == nil {
		return 0, false
	}
	var relative, absolute *uint64
	if entry.Terms.OffsetStart != nil {
		r := saturatingAdd(entry.Block, *entry.Terms.OffsetStart)
		relative = &r
	}
	absolute = entry.Terms.HeightStart
	return maxOptional(relative, absolute)
}

// End returns the exclusive height at which entry's mint window closes,
// and whether the window has any end bound at all.
func End(entry *types.RuneEntry) (uint64, bool) {
	if entry.Terms == nil {
		return 0, false
	}
	var relative, absolute *uint64
	if entry.Terms.OffsetEnd != nil {
		r := saturatingAdd(entry.Block, *entry.Terms.OffsetEnd)
		relative = &r
	}
	absolute = entry.Terms.HeightEnd
	return minOptional(relative, absolute)
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// maxOptional returns the larger of a and b, treating a nil pointer as
// undefined rather than zero; if both are nil, ok is false.
func maxOptional(a, b *uint64) (uint64, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return *b, true
	case b == nil:
		return *a, true
	default:
		if *a > *b {
			return *a, true
		}
		return *b, true
	}
}

func minOptional(a, b *uint64) (uint64, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return *b, true
	case b == nil:
		return *a, true
	default:
		if *a < *b {
			return *a, true
		}
		return *b, true
	}
}

// Mintable reports the amount a single mint of entry yields at height,
// or the reason it does not. It does not mutate entry; the caller is
// responsible for incrementing Mints and persisting on success.
func Mintable(entry *types.RuneEntry, height uint64) (*uint256.Int, error) {
	if entry.Terms == nil {
		return nil, errUnmintable
	}
	if start, ok := Start(entry); ok && height < start {
		return nil, &MintError{Kind: MintErrorStart, Height: start}
	}
	if end, ok := End(entry); ok && height >= end {
		return nil, &MintError{Kind: MintErrorEnd, Height: end}
	}
	if entry.Terms.Cap != nil && entry.Mints.Cmp(entry.Terms.Cap) >= 0 {
		return nil, &MintError{Kind: MintErrorCap, Bound: entry.Terms.Cap}
	}
	amount := new(uint256.Int)
	if entry.Terms.Amount != nil {
		amount.Set(entry.Terms.Amount)
	}
	return amount, nil
}

// Supply returns entry's circulating supply: premine plus every mint's
// amount.
func Supply(entry *types.RuneEntry) *uint256.Int {
	amount := new(uint256.Int)
	if entry.Terms != nil && entry.Terms.Amount != nil {
		amount.Set(entry.Terms.Amount)
	}
	minted := new(uint256.Int).Mul(entry.Mints, amount)
	return new(uint256.Int).Add(entry.Premine, minted)
}

// MaxSupply returns entry's maximum possible supply: premine plus the
// mint cap's worth of amount, or just premine if the terms are open
// ended (no cap).
func MaxSupply(entry *types.RuneEntry) *uint256.Int {
	if entry.Terms == nil || entry.Terms.Cap == nil {
		return new(uint256.Int).Set(entry.Premine)
	}
	amount := new(uint256.Int)
	if entry.Terms.Amount != nil {
		amount.Set(entry.Terms.Amount)
	}
	capped := new(uint256.Int).Mul(entry.Terms.Cap, amount)
	return new(uint256.Int).Add(entry.Premine, capped)
}

// ErrBurnedOverflow indicates entry.Burned would overflow its 128-bit
// wire width — corrupt state, per spec treated as fatal rather than
// recoverable.
var ErrBurnedOverflow = errors.New("runes: burned amount overflows u128")

var maxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// AddBurned adds amount to entry.Burned, checked against the u128 wire
// domain.
func AddBurned(entry *types.RuneEntry, amount *uint256.Int) error {
	sum := new(uint256.Int).Add(entry.Burned, amount)
	if sum.Cmp(maxU128) > 0 {
		return ErrBurnedOverflow
	}
	entry.Burned = sum
	return nil
}
