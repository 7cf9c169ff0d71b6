package codec

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/pkg/types"
)

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := &wire.BlockHeader{
		Version: 4,
		Bits:    0x1d00ffff,
		Nonce:   12345,
	}
	h.PrevBlock.SetBytes(bytes.Repeat([]byte{0xAB}, 32))
	h.MerkleRoot.SetBytes(bytes.Repeat([]byte{0xCD}, 32))

	enc, err := EncodeBlockHeader(h)
	if err != nil {
		t.Fatalf("EncodeBlockHeader: %v", err)
	}
	if len(enc) != BlockHeaderSize {
		t.Fatalf("encoded size = %d, want %d", len(enc), BlockHeaderSize)
	}

	dec, err := DecodeBlockHeader(enc[:])
	if err != nil {
		t.Fatalf("DecodeBlockHeader: %v", err)
	}
	if dec.Version != h.Version || dec.Bits != h.Bits || dec.Nonce != h.Nonce {
		t.Fatalf("round-trip mismatch: %+v vs %+v", dec, h)
	}
	if dec.PrevBlock != h.PrevBlock || dec.MerkleRoot != h.MerkleRoot {
		t.Fatal("hash fields did not round-trip")
	}
}

func TestOutPointRoundTrip(t *testing.T) {
	var o types.OutPoint
	o.TxID[0] = 0x01
	o.TxID[31] = 0xFF
	o.Vout = 7

	enc := EncodeOutPoint(o)
	dec, err := DecodeOutPoint(enc[:])
	if err != nil {
		t.Fatalf("DecodeOutPoint: %v", err)
	}
	if dec != o {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", dec, o)
	}
}

func TestRuneIdRoundTrip(t *testing.T) {
	id := types.RuneId{Block: 840000, Tx: 42}
	enc := EncodeRuneId(id)
	dec, err := DecodeRuneId(enc[:])
	if err != nil {
		t.Fatalf("DecodeRuneId: %v", err)
	}
	if dec != id {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", dec, id)
	}
}

func TestRuneIdOrdering(t *testing.T) {
	a := EncodeRuneId(types.RuneId{Block: 1, Tx: 0})
	b := EncodeRuneId(types.RuneId{Block: 1, Tx: 1})
	c := EncodeRuneId(types.RuneId{Block: 2, Tx: 0})
	if bytes.Compare(a[:], b[:]) >= 0 {
		t.Fatal("expected (1,0) < (1,1)")
	}
	if bytes.Compare(b[:], c[:]) >= 0 {
		t.Fatal("expected (1,1) < (2,0)")
	}
}

func TestTermsRoundTrip(t *testing.T) {
	amount := uint256.NewInt(1000)
	cap := uint256.NewInt(21000000)
	start := uint64(840000)

	terms := types.Terms{
		Amount:      amount,
		Cap:         cap,
		HeightStart: &start,
	}

	enc := EncodeTerms(terms)
	dec, err := DecodeTerms(enc[:])
	if err != nil {
		t.Fatalf("DecodeTerms: %v", err)
	}
	if dec.Amount.Cmp(amount) != 0 || dec.Cap.Cmp(cap) != 0 {
		t.Fatal("u128 fields did not round-trip")
	}
	if dec.HeightStart == nil || *dec.HeightStart != start {
		t.Fatal("HeightStart did not round-trip")
	}
	if dec.HeightEnd != nil || dec.OffsetStart != nil || dec.OffsetEnd != nil {
		t.Fatal("unset optional fields should decode as nil")
	}
}

func TestTermsAllUnset(t *testing.T) {
	enc := EncodeTerms(types.Terms{})
	dec, err := DecodeTerms(enc[:])
	if err != nil {
		t.Fatalf("DecodeTerms: %v", err)
	}
	if dec.Amount != nil || dec.Cap != nil || dec.HeightStart != nil ||
		dec.HeightEnd != nil || dec.OffsetStart != nil || dec.OffsetEnd != nil {
		t.Fatal("expected all-nil Terms to round-trip as all-nil")
	}
}

func TestRuneEntryRoundTrip(t *testing.T) {
	e := types.NewRuneEntry()
	e.Block = 840000
	e.Divisibility = 2
	e.Etching[0] = 0xAA
	e.Number = 5
	e.Premine = uint256.NewInt(1000)
	e.SpacedRune.Rune = *uint256.NewInt(12345)
	e.SpacedRune.Spacers = 0b101
	e.HasSymbol = true
	e.Symbol = '¤'
	start := uint64(840000)
	amount := uint256.NewInt(10)
	e.Terms = &types.Terms{Amount: amount, HeightStart: &start}
	e.Timestamp = 1700000000
	e.Turbo = true

	enc := EncodeRuneEntry(e)
	if len(enc) != RuneEntrySize {
		t.Fatalf("encoded size = %d, want %d", len(enc), RuneEntrySize)
	}

	dec, err := DecodeRuneEntry(enc)
	if err != nil {
		t.Fatalf("DecodeRuneEntry: %v", err)
	}

	if dec.Block != e.Block || dec.Divisibility != e.Divisibility || dec.Number != e.Number {
		t.Fatal("scalar fields did not round-trip")
	}
	if dec.Premine.Cmp(e.Premine) != 0 {
		t.Fatal("premine did not round-trip")
	}
	if dec.SpacedRune.Rune.Cmp(&e.SpacedRune.Rune) != 0 || dec.SpacedRune.Spacers != e.SpacedRune.Spacers {
		t.Fatal("spaced rune did not round-trip")
	}
	if !dec.HasSymbol || dec.Symbol != e.Symbol {
		t.Fatal("symbol did not round-trip")
	}
	if dec.Terms == nil || dec.Terms.Amount.Cmp(amount) != 0 || *dec.Terms.HeightStart != start {
		t.Fatal("terms did not round-trip")
	}
	if dec.Timestamp != e.Timestamp || dec.Turbo != e.Turbo {
		t.Fatal("timestamp/turbo did not round-trip")
	}
	if dec.Etching != e.Etching {
		t.Fatal("etching txid did not round-trip")
	}
}

func TestRuneEntryNoSymbolNoTerms(t *testing.T) {
	e := types.NewRuneEntry()
	enc := EncodeRuneEntry(e)
	dec, err := DecodeRuneEntry(enc)
	if err != nil {
		t.Fatalf("DecodeRuneEntry: %v", err)
	}
	if dec.HasSymbol {
		t.Fatal("expected HasSymbol = false")
	}
	if dec.Terms != nil {
		t.Fatal("expected Terms = nil")
	}
}

func TestMerkleRootSingleAndEmpty(t *testing.T) {
	if root := ComputeMerkleRoot(nil); !root.IsZero() {
		t.Fatalf("empty input should yield zero root, got %s", root)
	}
	var single types.Txid
	single[0] = 0x42
	if root := ComputeMerkleRoot([]types.Txid{single}); root != single {
		t.Fatal("single txid should be its own root")
	}
}

func TestMerkleRootDeterministic(t *testing.T) {
	txids := make([]types.Txid, 5)
	for i := range txids {
		txids[i][0] = byte(i + 1)
	}
	r1 := ComputeMerkleRoot(txids)
	r2 := ComputeMerkleRoot(txids)
	if r1 != r2 {
		t.Fatal("merkle root is not deterministic")
	}
}

// FuzzRuneEntryRoundTrip exercises the codec against arbitrary but
// well-formed RuneEntry values, catching offset-arithmetic mistakes
// that fixed example inputs wouldn't.
func FuzzRuneEntryRoundTrip(f *testing.F) {
	f.Add(uint64(840000), uint8(2), uint64(5), uint64(1000), true, true, uint32(0x2A))
	f.Fuzz(func(t *testing.T, block uint64, div uint8, number uint64, premine uint64, hasSymbol, turbo bool, symbol uint32) {
		e := types.NewRuneEntry()
		e.Block = block
		e.Divisibility = div
		e.Number = number
		e.Premine.SetUint64(premine)
		e.HasSymbol = hasSymbol
		e.Symbol = rune(symbol % 0x110000)
		e.Turbo = turbo

		enc := EncodeRuneEntry(e)
		dec, err := DecodeRuneEntry(enc)
		if err != nil {
			t.Fatalf("DecodeRuneEntry: %v", err)
		}
		if dec.Block != e.Block || dec.Divisibility != e.Divisibility ||
			dec.Number != e.Number || dec.Premine.Cmp(e.Premine) != 0 ||
			dec.HasSymbol != e.HasSymbol || dec.Turbo != e.Turbo {
			t.Fatalf("round-trip mismatch: got %+v, want %+v", dec, e)
		}
		if dec.HasSymbol && dec.Symbol != e.Symbol {
			t.Fatalf("symbol mismatch: got %q, want %q", dec.Symbol, e.Symbol)
		}
	})
}
