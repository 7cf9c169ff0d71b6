package codec

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// BlockHeaderSize is the fixed consensus-encoded size of a Bitcoin block
// header: version(4) | prev_blockhash(32) | merkle_root(32) | time(4) |
// bits(4) | nonce(4).
const BlockHeaderSize = 80

// EncodeBlockHeader serializes h using Bitcoin's wire consensus encoding,
// which is exactly 80 bytes for every valid header — using wire.BlockHeader
// gets this byte-for-byte for free instead of hand-rolling field order.
func EncodeBlockHeader(h *wire.BlockHeader) ([BlockHeaderSize]byte, error) {
	var out [BlockHeaderSize]byte
	buf := bytes.NewBuffer(out[:0])
	if err := h.Serialize(buf); err != nil {
		return out, fmt.Errorf("codec: encode block header: %w", err)
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

// DecodeBlockHeader parses an 80-byte consensus-encoded header.
func DecodeBlockHeader(b []byte) (*wire.BlockHeader, error) {
	if len(b) != BlockHeaderSize {
		return nil, fmt.Errorf("codec: block header must be %d bytes, got %d", BlockHeaderSize, len(b))
	}
	var h wire.BlockHeader
	if err := h.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("codec: decode block header: %w", err)
	}
	return &h, nil
}
