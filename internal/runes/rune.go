// Package runes implements the rune updater: the per-transaction state
// machine that turns a decoded artifact into rune entries, mints, edict
// transfers and burns, and the persistent maps it reads and writes.
package runes

import (
	"strings"

	"github.com/holiman/uint256"
)

// subsidyHalvingInterval is Bitcoin's block-reward halving period, the
// clock the name-length unlock schedule below rides on.
const subsidyHalvingInterval = 210000

// reservedBase is the first name value set aside for transactions that
// etch without naming a rune. It is chosen comfortably above any name
// MinimumAtHeight will ever produce (even at height 0, the minimum name
// is 13 letters, far shorter than the 20-letter name reservedBase
// encodes), so a
// reserved name can never collide with one a committer could have
// chosen. There is no retrieved reference implementation of the real
// Runes protocol's reserved-name constant to match byte-for-byte; this
// value is a self-consistent stand-in satisfying the same contract
// (deterministic, collision-free, monotonic in (height, tx_index)). See
// DESIGN.md.
var reservedBase = func() *uint256.Int {
	// 26^20 is a 20-letter name value (the 20-letter range runs from
	// (26^20-26)/25 up to, but not including, (26^21-26)/25), so every
	// name of up to 19 letters, and most 20-letter names, stay below it.
	base := uint256.NewInt(26)
	acc := uint256.NewInt(1)
	for i := 0; i < 20; i++ {
		acc = new(uint256.Int).Mul(acc, base)
	}
	return acc
}()

// maxTxPerBlock upper-bounds the transaction index component of a
// reserved name so that distinct (height, tx_index) pairs never collide
// once combined additively.
const maxTxPerBlock = 1 << 20

// Reserved returns the deterministic reserved name assigned to an etching
// that does not specify one, derived from the block height and the
// etching transaction's index within it.
func Reserved(height uint64, txIndex uint32) *uint256.Int {
	delta := new(uint256.Int).Mul(uint256.NewInt(height), uint256.NewInt(maxTxPerBlock))
	delta = new(uint256.Int).Add(delta, uint256.NewInt(uint64(txIndex)))
	return new(uint256.Int).Add(reservedBase, delta)
}

// IsReserved reports whether rune falls in the reserved range and can
// therefore never be chosen by an etching transaction.
func IsReserved(rune *uint256.Int) bool {
	return rune.Cmp(reservedBase) >= 0
}

// nameUnlockSteps is the number of equal steps, spread across one
// subsidyHalvingInterval, over which the minimum permitted name length
// shrinks from its longest to its shortest value,
// mirroring the general shape of the real protocol's gradual release of
// short names (longer, less desirable names become available first).
// The exact schedule is not present in the retrieved source; this is a
// self-designed stand-in with the same monotonic-shrink behavior. See
// DESIGN.md.
const nameUnlockSteps = 12

// minNameLength is the shortest name length ever permitted (single
// letter); maxNameLength is the longest length required at genesis.
const (
	minNameLength = 1
	maxNameLength = 13
)

// MinimumAtHeight returns the smallest rune name a committer may choose
// at the given block height. The permitted minimum name length shrinks
// by one every subsidyHalvingInterval/nameUnlockSteps blocks, down to a
// single letter, after which any non-reserved name is available.
func MinimumAtHeight(height uint64) *uint256.Int {
	stepInterval := uint64(subsidyHalvingInterval) / nameUnlockSteps
	steps := height / stepInterval
	if steps > nameUnlockSteps {
		steps = nameUnlockSteps
	}
	length := maxNameLength - int(steps)
	if length < minNameLength {
		length = minNameLength
	}
	return minimumValueForLength(length)
}

// minimumValueForLength returns the smallest rune value whose name
// (bijective base-26, "A".."Z","AA"..) is exactly n letters long. In the
// bijective numbering Name encodes below, the smallest n-letter value is
// (26^n - 1) / 25 - 1: the 0-indexed value of a run of n "A"s (the
// smallest n-letter name, whose 1-indexed bijective value is
// (26^n-1)/25).
func minimumValueForLength(n int) *uint256.Int {
	if n <= 0 {
		return new(uint256.Int)
	}
	pow := uint256.NewInt(1)
	base := uint256.NewInt(26)
	for i := 0; i < n; i++ {
		pow = new(uint256.Int).Mul(pow, base)
	}
	pow.Sub(pow, uint256.NewInt(1))
	pow.Div(pow, uint256.NewInt(25))
	return pow.Sub(pow, uint256.NewInt(1))
}

// Name renders a rune value in the protocol's bijective base-26 form:
// value 0 is "A", 25 is "Z", 26 is "AA", following the same "number the
// name, don't name the number" scheme spreadsheet column letters use.
func Name(value *uint256.Int) string {
	n := new(uint256.Int).Add(value, uint256.NewInt(1))
	var letters []byte
	base := uint256.NewInt(26)
	for n.Sign() > 0 {
		n.Sub(n, uint256.NewInt(1))
		digit := new(uint256.Int).Mod(n, base)
		letters = append(letters, byte('A')+byte(digit.Uint64()))
		n.Div(n, base)
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// ParseName parses a bijective base-26 rune name (letters only, no
// spacers) back into its value. It is the exact inverse of Name.
func ParseName(s string) (*uint256.Int, bool) {
	s = strings.ToUpper(s)
	if s == "" {
		return nil, false
	}
	n := new(uint256.Int)
	base := uint256.NewInt(26)
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return nil, false
		}
		n = new(uint256.Int).Mul(n, base)
		n = n.Add(n, uint256.NewInt(uint64(c-'A')+1))
	}
	return n.Sub(n, uint256.NewInt(1)), true
}

// Commitment returns the minimal little-endian byte encoding of rune's
// value, trimmed of trailing zero bytes, which an etching transaction
// must reveal via a taproot script-path spend to authenticate its claim
// to the name (see the commitment check in commitment.go). There is no
// retrieved reference implementation to match byte-for-byte; this
// encoding is self-designed but follows the same idea real Runestone
// implementations use: a short, unambiguous, reversible encoding of the
// name's numeric value. See DESIGN.md.
func Commitment(rune *uint256.Int) []byte {
	b := rune.Bytes() // big-endian, minimal length
	// Reverse to little-endian.
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	// Trim trailing (now-high-order) zero bytes, keeping at least one byte.
	end := len(out)
	for end > 1 && out[end-1] == 0 {
		end--
	}
	return out[:end]
}
