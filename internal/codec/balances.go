package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// balanceEntrySize is the wire width of one (RuneId, u128) pair.
const balanceEntrySize = types.RuneIdSize + u128Size

// EncodeBalances serializes a list of rune balances as a 4-byte
// big-endian count followed by that many fixed-width (RuneId, u128)
// entries. This is the value stored under an OutpointBalances key.
func EncodeBalances(balances []types.RuneBalance) []byte {
	out := make([]byte, 4+len(balances)*balanceEntrySize)
	binary.BigEndian.PutUint32(out[:4], uint32(len(balances)))
	off := 4
	for _, b := range balances {
		id := EncodeRuneId(b.ID)
		copy(out[off:off+types.RuneIdSize], id[:])
		off += types.RuneIdSize
		val := EncodeU128(b.Balance)
		copy(out[off:off+u128Size], val[:])
		off += u128Size
	}
	return out
}

// DecodeBalances parses the wire form EncodeBalances produces.
func DecodeBalances(b []byte) ([]types.RuneBalance, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("codec: balances list truncated")
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	want := int(count) * balanceEntrySize
	if len(b) != want {
		return nil, fmt.Errorf("codec: balances list must be %d bytes, got %d", want, len(b))
	}
	out := make([]types.RuneBalance, count)
	off := 0
	for i := range out {
		id, err := DecodeRuneId(b[off : off+types.RuneIdSize])
		if err != nil {
			return nil, fmt.Errorf("codec: balance entry %d: %w", i, err)
		}
		off += types.RuneIdSize
		out[i] = types.RuneBalance{ID: id, Balance: DecodeU128(b[off : off+u128Size])}
		off += u128Size
	}
	return out, nil
}
