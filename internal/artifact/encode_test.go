package artifact

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
)

// testRunestone builds a minimal OP_RETURN output carrying tag/value pairs
// followed by edicts, mirroring the wire layout Decode expects. It exists
// only to give the test file a way to construct fixtures without hand
// assembling varint bytes.
type testRunestone struct {
	fields [][2]uint64
	runeTag *uint256.Int // overrides fields[tagRune] with a full uint256 if set
	edicts [][4]uint64
}

func (tr testRunestone) build() []byte {
	var payload []byte
	wroteRune := false
	for _, kv := range tr.fields {
		if kv[0] == tagRune && tr.runeTag != nil {
			payload = putUvarint64(payload, kv[0])
			payload = putUvarint(payload, tr.runeTag)
			wroteRune = true
			continue
		}
		payload = putUvarint64(payload, kv[0])
		payload = putUvarint64(payload, kv[1])
	}
	if tr.runeTag != nil && !wroteRune {
		payload = putUvarint64(payload, tagRune)
		payload = putUvarint(payload, tr.runeTag)
	}
	payload = putUvarint64(payload, tagBody)
	for _, e := range tr.edicts {
		payload = putUvarint64(payload, e[0])
		payload = putUvarint64(payload, e[1])
		payload = putUvarint64(payload, e[2])
		payload = putUvarint64(payload, e[3])
	}

	script := append([]byte{}, protocolID...)
	script = append(script, pushData(payload)...)
	return script
}

func pushData(data []byte) []byte {
	if len(data) <= 0x4b {
		return append([]byte{byte(len(data))}, data...)
	}
	if len(data) <= 0xff {
		return append([]byte{0x4c, byte(len(data))}, data...)
	}
	out := []byte{0x4d, byte(len(data)), byte(len(data) >> 8)}
	return append(out, data...)
}

func txWithOpReturn(script []byte, extraOutputs int) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	for i := 0; i < extraOutputs; i++ {
		tx.AddTxOut(wire.NewTxOut(1000, []byte{0x76, 0xa9})) // arbitrary non-OP_RETURN script
	}
	return tx
}
