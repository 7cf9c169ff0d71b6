package types

import "github.com/holiman/uint256"

// Terms holds the optional minting parameters of a rune etching. A nil
// pointer means the corresponding bound is unset.
type Terms struct {
	Amount      *uint256.Int
	Cap         *uint256.Int
	HeightStart *uint64
	HeightEnd   *uint64
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// RuneEntry is the persisted metadata for one etched rune.
type RuneEntry struct {
	Block       uint64
	Burned      *uint256.Int
	Divisibility uint8
	Etching     Txid
	Mints       *uint256.Int
	Number      uint64
	Premine     *uint256.Int
	SpacedRune  SpacedRune
	Symbol      rune // meaningful only when HasSymbol is true
	HasSymbol   bool
	Terms       *Terms
	Timestamp   uint64
	Turbo       bool
}

// NewRuneEntry returns a RuneEntry with zero-valued u128 fields
// initialized so callers never have to nil-check before arithmetic.
func NewRuneEntry() *RuneEntry {
	return &RuneEntry{
		Burned:  new(uint256.Int),
		Mints:   new(uint256.Int),
		Premine: new(uint256.Int),
	}
}
