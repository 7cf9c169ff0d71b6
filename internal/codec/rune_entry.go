package codec

import (
	"fmt"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// optRuneSize is the Option<char> slot used for a rune's display symbol:
// one presence flag followed by a 4-byte UTF-32 code point.
const optRuneSize = 1 + 4

// optTermsSize is one presence flag followed by a full Terms slot.
const optTermsSize = 1 + TermsSize

// RuneEntrySize is the fixed wire size of an encoded RuneEntry.
const RuneEntrySize = 8 + /* block */
	u128Size + /* burned */
	1 + /* divisibility */
	32 + /* etching txid */
	u128Size + /* mints */
	8 + /* number */
	u128Size + /* premine */
	(u128Size + 4) + /* spaced_rune: name + spacers */
	optRuneSize + /* symbol */
	optTermsSize + /* terms */
	8 + /* timestamp */
	1 /* turbo */

// EncodeRuneEntry serializes e into RuneEntrySize bytes.
func EncodeRuneEntry(e *types.RuneEntry) []byte {
	out := make([]byte, RuneEntrySize)
	off := 0

	putUint64BE(out[off:off+8], e.Block)
	off += 8

	putU128(out[off:off+u128Size], e.Burned)
	off += u128Size

	out[off] = e.Divisibility
	off++

	copy(out[off:off+32], e.Etching[:])
	off += 32

	putU128(out[off:off+u128Size], e.Mints)
	off += u128Size

	putUint64BE(out[off:off+8], e.Number)
	off += 8

	putU128(out[off:off+u128Size], e.Premine)
	off += u128Size

	putU128(out[off:off+u128Size], &e.SpacedRune.Rune)
	off += u128Size
	putUint32BE(out[off:off+4], e.SpacedRune.Spacers)
	off += 4

	if e.HasSymbol {
		out[off] = 1
		putUint32BE(out[off+1:off+1+4], uint32(e.Symbol))
	}
	off += optRuneSize

	if e.Terms != nil {
		out[off] = 1
		termsBytes := EncodeTerms(*e.Terms)
		copy(out[off+1:off+1+TermsSize], termsBytes[:])
	}
	off += optTermsSize

	putUint64BE(out[off:off+8], e.Timestamp)
	off += 8

	if e.Turbo {
		out[off] = 1
	}
	off++

	return out
}

// DecodeRuneEntry parses a RuneEntrySize-byte encoded RuneEntry.
func DecodeRuneEntry(b []byte) (*types.RuneEntry, error) {
	if len(b) != RuneEntrySize {
		return nil, fmt.Errorf("codec: rune entry must be %d bytes, got %d", RuneEntrySize, len(b))
	}
	e := &types.RuneEntry{}
	off := 0

	e.Block = getUint64BE(b[off : off+8])
	off += 8

	e.Burned = getU128(b[off : off+u128Size])
	off += u128Size

	e.Divisibility = b[off]
	off++

	copy(e.Etching[:], b[off:off+32])
	off += 32

	e.Mints = getU128(b[off : off+u128Size])
	off += u128Size

	e.Number = getUint64BE(b[off : off+8])
	off += 8

	e.Premine = getU128(b[off : off+u128Size])
	off += u128Size

	e.SpacedRune.Rune = *getU128(b[off : off+u128Size])
	off += u128Size
	e.SpacedRune.Spacers = getUint32BE(b[off : off+4])
	off += 4

	if b[off] == 1 {
		e.HasSymbol = true
		e.Symbol = rune(getUint32BE(b[off+1 : off+1+4]))
	}
	off += optRuneSize

	if b[off] == 1 {
		terms, err := DecodeTerms(b[off+1 : off+1+TermsSize])
		if err != nil {
			return nil, fmt.Errorf("codec: rune entry terms: %w", err)
		}
		e.Terms = &terms
	}
	off += optTermsSize

	e.Timestamp = getUint64BE(b[off : off+8])
	off += 8

	e.Turbo = b[off] == 1
	off++

	return e, nil
}

func putUint32BE(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func getUint32BE(src []byte) uint32 {
	return uint32(src[0])<<24 | uint32(src[1])<<16 | uint32(src[2])<<8 | uint32(src[3])
}
