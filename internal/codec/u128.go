// Package codec implements the stable binary encodings for the entities
// the indexer persists: Bitcoin primitives (block headers, outpoints,
// txids), rune identifiers, rune entries, terms and outpoint balances.
//
// Every encoding here is a pure, total function of its input; decode is
// the exact inverse of encode. None of these functions return an error
// for a value produced by this package's own encode side — a decode
// failure on indexer-internal data is a programmer error (corrupt
// store), not a runtime condition to recover from.
package codec

import "github.com/holiman/uint256"

// u128Size is the wire width of every balance-shaped quantity in the
// store: amounts, premine, burned and mint counters are all u128 on
// the wire even though Go has no native 128-bit integer.
const u128Size = 16

// putU128 writes v as 16 big-endian bytes into dst[:16].
func putU128(dst []byte, v *uint256.Int) {
	buf := v.Bytes() // big-endian, minimal length, no leading zero bytes
	if len(buf) > u128Size {
		panic("codec: u128 value does not fit in 128 bits")
	}
	for i := range dst[:u128Size] {
		dst[i] = 0
	}
	copy(dst[u128Size-len(buf):u128Size], buf)
}

// getU128 reads 16 big-endian bytes from src and returns them as a
// *uint256.Int, which has ample headroom above the u128 domain.
func getU128(src []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(src[:u128Size])
}

// EncodeU128 is the exported form of putU128, for callers outside this
// package that need the same 16-byte big-endian width (e.g. the rune
// balance lists persisted alongside an outpoint).
func EncodeU128(v *uint256.Int) [u128Size]byte {
	var out [u128Size]byte
	putU128(out[:], v)
	return out
}

// DecodeU128 is the exported form of getU128.
func DecodeU128(src []byte) *uint256.Int {
	return getU128(src)
}

// U128Size is the exported form of u128Size.
const U128Size = u128Size
