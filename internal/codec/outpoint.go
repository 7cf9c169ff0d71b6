package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// EncodeOutPoint writes the 36-byte wire form of an OutPoint: the 32-byte
// txid followed by the little-endian 4-byte output index, matching
// Bitcoin's own OutPoint consensus encoding.
func EncodeOutPoint(o types.OutPoint) [types.OutPointSize]byte {
	var out [types.OutPointSize]byte
	copy(out[:32], o.TxID[:])
	binary.LittleEndian.PutUint32(out[32:36], o.Vout)
	return out
}

// DecodeOutPoint parses a 36-byte wire-form OutPoint.
func DecodeOutPoint(b []byte) (types.OutPoint, error) {
	if len(b) != types.OutPointSize {
		return types.OutPoint{}, fmt.Errorf("codec: outpoint must be %d bytes, got %d", types.OutPointSize, len(b))
	}
	var o types.OutPoint
	copy(o.TxID[:], b[:32])
	o.Vout = binary.LittleEndian.Uint32(b[32:36])
	return o, nil
}

// EncodeTxid returns the natural 32-byte representation of a txid.
func EncodeTxid(t types.Txid) [32]byte {
	return t
}

// DecodeTxid parses a 32-byte txid.
func DecodeTxid(b []byte) (types.Txid, error) {
	if len(b) != 32 {
		return types.Txid{}, fmt.Errorf("codec: txid must be 32 bytes, got %d", len(b))
	}
	var t types.Txid
	copy(t[:], b)
	return t, nil
}

// EncodeRuneId writes the 12-byte wire form of a RuneId: an 8-byte
// big-endian block height followed by a 4-byte big-endian tx index.
// Big-endian is used (unlike OutPoint) so that encoded RuneIds sort in
// etching order under a byte-lexicographic key comparator, as do the
// RuneEntry keys built from them.
func EncodeRuneId(id types.RuneId) [types.RuneIdSize]byte {
	var out [types.RuneIdSize]byte
	binary.BigEndian.PutUint64(out[:8], id.Block)
	binary.BigEndian.PutUint32(out[8:12], id.Tx)
	return out
}

// DecodeRuneId parses a 12-byte wire-form RuneId.
func DecodeRuneId(b []byte) (types.RuneId, error) {
	if len(b) != types.RuneIdSize {
		return types.RuneId{}, fmt.Errorf("codec: rune id must be %d bytes, got %d", types.RuneIdSize, len(b))
	}
	return types.RuneId{
		Block: binary.BigEndian.Uint64(b[:8]),
		Tx:    binary.BigEndian.Uint32(b[8:12]),
	}, nil
}
