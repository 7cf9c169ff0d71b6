package artifact

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// protocolID is the two-byte marker (OP_RETURN, OP_13) that flags an
// output as carrying a rune payload. Any other OP_RETURN output is
// ignored — it belongs to some other OP_RETURN-based protocol.
var protocolID = []byte{0x6a, 0x5d}

// Field tags. Even tags must be understood by a decoder; an unrecognized
// even tag makes the whole payload a cenotaph (forward-incompatible
// field). Odd tags may be safely skipped (their value is still consumed
// so the rest of the payload stays aligned).
const (
	tagBody        = 0
	tagFlags       = 2
	tagRune        = 4
	tagPremine     = 6
	tagCap         = 8
	tagAmount      = 10
	tagHeightStart = 12
	tagHeightEnd   = 14
	tagOffsetStart = 16
	tagOffsetEnd   = 18
	tagMint        = 20
	tagPointer     = 22
	tagSpacers     = 24
	tagSymbol      = 26
	tagDivisibility = 28
)

const (
	flagEtching = 1 << 0
	flagTurbo   = 1 << 1
)

var maxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Decode inspects tx's outputs for a rune payload and parses it. A nil
// result with a nil error means the transaction carries no rune intent at
// all. A malformed payload never returns an error — it decodes to a
// Cenotaph, per the Runes protocol's "malformed runestones burn, they
// don't abort indexing" rule.
func Decode(tx *wire.MsgTx) (*Artifact, error) {
	payloads := findPayloads(tx)
	if len(payloads) == 0 {
		return nil, nil
	}
	if len(payloads) > 1 {
		// More than one candidate runestone output: malformed.
		return &Artifact{Kind: KindCenotaph}, nil
	}

	fields, edicts, ok := parsePayload(payloads[0])
	if !ok {
		return &Artifact{Kind: KindCenotaph, CenotaphEtching: fields.runeName()}, nil
	}

	outputCount := uint32(len(tx.TxOut))
	for _, e := range edicts {
		if e.Output > outputCount {
			// The edict parser must never produce this; treat as malformed.
			return &Artifact{Kind: KindCenotaph, CenotaphEtching: fields.runeName()}, nil
		}
	}

	a := &Artifact{Kind: KindRunestone}

	if v, ok := fields[tagMint]; ok && len(v) >= 2 {
		ref := RuneRef{}
		if v[0].IsUint64() && v[1].IsUint64() {
			ref.Block = v[0].Uint64()
			ref.Tx = uint32(v[1].Uint64())
			a.Mint = &ref
		}
	}

	if v, ok := fields[tagPointer]; ok && len(v) > 0 && v[0].IsUint64() {
		p := uint32(v[0].Uint64())
		if p >= outputCount {
			return &Artifact{Kind: KindCenotaph, CenotaphEtching: fields.runeName()}, nil
		}
		a.Pointer = &p
	}

	flags := fields.flagBits()
	if flags&flagEtching != 0 {
		et := &Etching{Turbo: flags&flagTurbo != 0}
		if v, ok := fields[tagRune]; ok && len(v) > 0 {
			et.Rune = v[0]
		}
		if v, ok := fields[tagDivisibility]; ok && len(v) > 0 && v[0].IsUint64() && v[0].Uint64() <= 0xff {
			et.HasDivisibility = true
			et.Divisibility = uint8(v[0].Uint64())
		}
		if v, ok := fields[tagSpacers]; ok && len(v) > 0 && v[0].IsUint64() {
			et.HasSpacers = true
			et.Spacers = uint32(v[0].Uint64())
		}
		if v, ok := fields[tagSymbol]; ok && len(v) > 0 && v[0].IsUint64() {
			et.HasSymbol = true
			et.Symbol = rune(v[0].Uint64())
		}
		if v, ok := fields[tagPremine]; ok && len(v) > 0 {
			et.Premine = v[0]
		}
		et.Terms = fields.terms()
		if !ValidEtching(et) {
			return &Artifact{Kind: KindCenotaph, CenotaphEtching: et.Rune}, nil
		}
		a.Etching = et
	}

	a.Edicts = edicts
	return a, nil
}

// findPayloads returns the push-data following the protocol marker for
// every OP_RETURN output that carries it.
func findPayloads(tx *wire.MsgTx) [][]byte {
	var out [][]byte
	for _, txOut := range tx.TxOut {
		script := txOut.PkScript
		if !types.IsOpReturn(script) {
			continue
		}
		if len(script) < len(protocolID) || script[0] != protocolID[0] || script[1] != protocolID[1] {
			continue
		}
		out = append(out, extractPushData(script[len(protocolID):]))
	}
	return out
}

// extractPushData concatenates the data pushes in script, stopping at the
// first opcode that isn't a simple push. Runestone payloads may be split
// across multiple pushes to stay under script size limits.
func extractPushData(script []byte) []byte {
	var payload []byte
	for i := 0; i < len(script); {
		op := script[i]
		switch {
		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			i++
			if i+n > len(script) {
				return payload
			}
			payload = append(payload, script[i:i+n]...)
			i += n
		case op == 0x4c && i+1 < len(script): // OP_PUSHDATA1
			n := int(script[i+1])
			i += 2
			if i+n > len(script) {
				return payload
			}
			payload = append(payload, script[i:i+n]...)
			i += n
		case op == 0x4d && i+2 < len(script): // OP_PUSHDATA2
			n := int(script[i+1]) | int(script[i+2])<<8
			i += 3
			if i+n > len(script) {
				return payload
			}
			payload = append(payload, script[i:i+n]...)
			i += n
		default:
			return payload
		}
	}
	return payload
}

type fieldMap map[int][]*uint256.Int

func (f fieldMap) flagBits() uint64 {
	v, ok := f[tagFlags]
	if !ok || len(v) == 0 || !v[0].IsUint64() {
		return 0
	}
	return v[0].Uint64()
}

// runeName returns the rune name carried by an otherwise-malformed
// payload, but only when an etching was actually in progress — per
// spec's "Cenotaph with a name is a degenerate etching" rule.
func (f fieldMap) runeName() *uint256.Int {
	if f.flagBits()&flagEtching == 0 {
		return nil
	}
	v, ok := f[tagRune]
	if !ok || len(v) == 0 {
		return nil
	}
	return v[0]
}

func (f fieldMap) terms() *Terms {
	_, hasAmount := f[tagAmount]
	_, hasCap := f[tagCap]
	_, hasHS := f[tagHeightStart]
	_, hasHE := f[tagHeightEnd]
	_, hasOS := f[tagOffsetStart]
	_, hasOE := f[tagOffsetEnd]
	if !hasAmount && !hasCap && !hasHS && !hasHE && !hasOS && !hasOE {
		return nil
	}
	t := &Terms{}
	if hasAmount {
		t.Amount = f[tagAmount][0]
	}
	if hasCap {
		t.Cap = f[tagCap][0]
	}
	if hasHS && f[tagHeightStart][0].IsUint64() {
		v := f[tagHeightStart][0].Uint64()
		t.HeightStart = &v
	}
	if hasHE && f[tagHeightEnd][0].IsUint64() {
		v := f[tagHeightEnd][0].Uint64()
		t.HeightEnd = &v
	}
	if hasOS && f[tagOffsetStart][0].IsUint64() {
		v := f[tagOffsetStart][0].Uint64()
		t.OffsetStart = &v
	}
	if hasOE && f[tagOffsetEnd][0].IsUint64() {
		v := f[tagOffsetEnd][0].Uint64()
		t.OffsetEnd = &v
	}
	return t
}

// parsePayload reads (tag, value) pairs until tagBody, after which
// remaining integers are read in groups of four as edicts
// (block, tx, amount, output). Returns ok=false for any structural
// malformation, which the caller turns into a Cenotaph.
func parsePayload(payload []byte) (fields fieldMap, edicts []Edict, ok bool) {
	fields = fieldMap{}
	ints, valid := readAllVarints(payload)
	if !valid {
		return nil, nil, false
	}

	i := 0
	for i < len(ints) {
		tag := ints[i]
		if tag == tagBody {
			i++
			break
		}
		if i+1 >= len(ints) {
			return nil, nil, false // dangling tag with no value
		}
		if !tag.IsUint64() {
			return nil, nil, false
		}
		t := int(tag.Uint64())
		if t%2 == 0 {
			switch t {
			case tagFlags, tagRune, tagPremine, tagCap, tagAmount, tagHeightStart,
				tagHeightEnd, tagOffsetStart, tagOffsetEnd, tagMint, tagPointer,
				tagSpacers, tagSymbol, tagDivisibility:
				// known
			default:
				return nil, nil, false // unknown even tag: forward-incompatible
			}
		}
		fields[t] = append(fields[t], ints[i+1])
		i += 2
	}

	remaining := ints[i:]
	if len(remaining)%4 != 0 {
		return nil, nil, false
	}
	for j := 0; j < len(remaining); j += 4 {
		block, tx, amount, output := remaining[j], remaining[j+1], remaining[j+2], remaining[j+3]
		if !block.IsUint64() || !tx.IsUint64() || !output.IsUint64() {
			return nil, nil, false
		}
		if amount.Cmp(maxU128) > 0 {
			return nil, nil, false
		}
		edicts = append(edicts, Edict{
			ID:     RuneRef{Block: block.Uint64(), Tx: uint32(tx.Uint64())},
			Amount: amount,
			Output: uint32(output.Uint64()),
		})
	}

	for _, list := range fields {
		for _, v := range list {
			if v.Cmp(maxU128) > 0 {
				return nil, nil, false
			}
		}
	}

	return fields, edicts, true
}

func readAllVarints(payload []byte) ([]*uint256.Int, bool) {
	var out []*uint256.Int
	for len(payload) > 0 {
		v, n, err := getUvarint(payload)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
		payload = payload[n:]
	}
	return out, true
}
