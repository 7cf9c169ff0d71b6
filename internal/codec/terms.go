package codec

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// optU128Size is one flag byte plus a 16-byte value.
const optU128Size = 1 + u128Size

// optU64Size is one flag byte plus an 8-byte value.
const optU64Size = 1 + 8

// TermsSize is the fixed wire size of an encoded Terms value: two
// optional u128 fields and four optional u64 fields.
const TermsSize = 2*optU128Size + 4*optU64Size

// EncodeTerms serializes t into TermsSize bytes. Each optional field is
// encoded as a presence flag followed by its fixed-width value slot
// (zeroed when absent).
func EncodeTerms(t types.Terms) [TermsSize]byte {
	var out [TermsSize]byte
	off := 0

	putOptU128 := func(v *uint256.Int) {
		if v != nil {
			out[off] = 1
			putU128(out[off+1:off+1+u128Size], v)
		}
		off += optU128Size
	}
	putOptU64 := func(v *uint64) {
		if v != nil {
			out[off] = 1
			putUint64BE(out[off+1:off+1+8], *v)
		}
		off += optU64Size
	}

	putOptU128(t.Amount)
	putOptU128(t.Cap)
	putOptU64(t.HeightStart)
	putOptU64(t.HeightEnd)
	putOptU64(t.OffsetStart)
	putOptU64(t.OffsetEnd)

	return out
}

// DecodeTerms parses a TermsSize-byte encoded Terms value.
func DecodeTerms(b []byte) (types.Terms, error) {
	if len(b) != TermsSize {
		return types.Terms{}, fmt.Errorf("codec: terms must be %d bytes, got %d", TermsSize, len(b))
	}
	var t types.Terms
	off := 0

	getOptU128 := func() *uint256.Int {
		present := b[off] == 1
		val := getU128(b[off+1 : off+1+u128Size])
		off += optU128Size
		if !present {
			return nil
		}
		return val
	}
	getOptU64 := func() *uint64 {
		present := b[off] == 1
		val := getUint64BE(b[off+1 : off+1+8])
		off += optU64Size
		if !present {
			return nil
		}
		return &val
	}

	t.Amount = getOptU128()
	t.Cap = getOptU128()
	t.HeightStart = getOptU64()
	t.HeightEnd = getOptU64()
	t.OffsetStart = getOptU64()
	t.OffsetEnd = getOptU64()

	return t, nil
}

func putUint64BE(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func getUint64BE(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}
