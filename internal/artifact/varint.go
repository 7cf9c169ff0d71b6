package artifact

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrVarintTruncated is returned when a varint's continuation bit is set on
// the last available byte.
var ErrVarintTruncated = errors.New("artifact: truncated varint")

// ErrVarintOverflow is returned when a varint encodes more than 128 bits.
var ErrVarintOverflow = errors.New("artifact: varint exceeds 128 bits")

// putUvarint appends x LEB128-encoded (7 bits per byte, MSB continuation
// flag) to dst and returns the result.
func putUvarint(dst []byte, x *uint256.Int) []byte {
	v := new(uint256.Int).Set(x)
	for {
		b := byte(v.Uint64() & 0x7f)
		v.Rsh(v, 7)
		if v.IsZero() {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// getUvarint decodes a LEB128 varint from the front of b, returning the
// value and the number of bytes consumed.
func getUvarint(b []byte) (*uint256.Int, int, error) {
	v := new(uint256.Int)
	shift := uint(0)
	for i := 0; i < len(b); i++ {
		if shift >= 128 {
			return nil, 0, ErrVarintOverflow
		}
		chunk := new(uint256.Int).SetUint64(uint64(b[i] & 0x7f))
		chunk.Lsh(chunk, shift)
		v.Or(v, chunk)
		if b[i]&0x80 == 0 {
			if v.BitLen() > 128 {
				return nil, 0, ErrVarintOverflow
			}
			return v, i + 1, nil
		}
		shift += 7
	}
	return nil, 0, ErrVarintTruncated
}

func putUvarint64(dst []byte, x uint64) []byte {
	return putUvarint(dst, new(uint256.Int).SetUint64(x))
}

func getUvarint64(b []byte) (uint64, int, error) {
	v, n, err := getUvarint(b)
	if err != nil {
		return 0, 0, err
	}
	if !v.IsUint64() {
		return 0, 0, ErrVarintOverflow
	}
	return v.Uint64(), n, nil
}
