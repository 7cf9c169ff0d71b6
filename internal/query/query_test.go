package query

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/internal/storage"
	"github.com/klingon-tech/runeindex/pkg/types"
)

func newTestFacade(t *testing.T) (*Facade, *runes.Store) {
	t.Helper()
	db := storage.NewMemory()
	store := runes.NewStore(db)
	return New(store), store
}

func TestLatestBlockBeforeAnyIndexing(t *testing.T) {
	f, _ := newTestFacade(t)
	if _, _, err := f.LatestBlock(); err != ErrNoBlocksIndexed {
		t.Fatalf("expected ErrNoBlocksIndexed, got %v", err)
	}
}

func TestLatestBlockAfterIndexing(t *testing.T) {
	f, store := newTestFacade(t)
	w := store.DirectWriter()

	hdr := &wire.BlockHeader{Version: 1, Nonce: 7}
	if err := store.PutBlockHeader(w, 840000, hdr); err != nil {
		t.Fatal(err)
	}
	if err := store.SetTipHeight(w, 840000); err != nil {
		t.Fatal(err)
	}

	height, hash, err := f.LatestBlock()
	if err != nil {
		t.Fatalf("LatestBlock: %v", err)
	}
	if height != 840000 {
		t.Fatalf("height = %d, want 840000", height)
	}
	if hash != types.Hash(hdr.BlockHash()) {
		t.Fatalf("hash mismatch")
	}
}

func TestEtchingRoundTrip(t *testing.T) {
	f, store := newTestFacade(t)
	w := store.DirectWriter()

	id := types.RuneId{Block: 840000, Tx: 1}
	txid := types.Txid{0x01}
	name := uint256.NewInt(555)

	entry := types.NewRuneEntry()
	entry.SpacedRune = types.SpacedRune{Rune: *name}
	entry.Premine = uint256.NewInt(1000)

	if err := store.PutRuneEntry(w, id, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.PutRuneByName(w, name, id); err != nil {
		t.Fatal(err)
	}
	if err := store.PutEtching(w, txid, name); err != nil {
		t.Fatal(err)
	}

	gotID, gotEntry, err := f.Etching(txid)
	if err != nil {
		t.Fatalf("Etching: %v", err)
	}
	if gotID != id {
		t.Fatalf("id = %+v, want %+v", gotID, id)
	}
	if gotEntry.Premine.Uint64() != 1000 {
		t.Fatalf("premine = %d, want 1000", gotEntry.Premine.Uint64())
	}
}

func TestEtchingNotFound(t *testing.T) {
	f, _ := newTestFacade(t)
	if _, _, err := f.Etching(types.Txid{0xFF}); err != ErrRuneNotFound {
		t.Fatalf("expected ErrRuneNotFound, got %v", err)
	}
}

func TestBalancesAndOutpointHeight(t *testing.T) {
	f, store := newTestFacade(t)
	w := store.DirectWriter()

	op := types.OutPoint{TxID: types.Txid{0x02}, Vout: 1}
	id := types.RuneId{Block: 1, Tx: 1}
	balances := []types.RuneBalance{{ID: id, Balance: uint256.NewInt(42)}}

	if err := store.PutOutpointBalances(w, op, balances); err != nil {
		t.Fatal(err)
	}
	if err := store.PutOutpointHeight(w, op, 100); err != nil {
		t.Fatal(err)
	}

	got, err := f.Balances(op)
	if err != nil || len(got) != 1 || got[0].Balance.Uint64() != 42 {
		t.Fatalf("Balances: got %+v, %v", got, err)
	}

	height, err := f.OutpointHeight(op)
	if err != nil || height != 100 {
		t.Fatalf("OutpointHeight: got %d, %v", height, err)
	}
}

func TestBalancesNotFound(t *testing.T) {
	f, _ := newTestFacade(t)
	op := types.OutPoint{TxID: types.Txid{0xAA}, Vout: 0}
	if _, err := f.Balances(op); err != ErrOutPointNotFound {
		t.Fatalf("expected ErrOutPointNotFound, got %v", err)
	}
	if _, err := f.OutpointHeight(op); err != ErrOutPointNotFound {
		t.Fatalf("expected ErrOutPointNotFound, got %v", err)
	}
}

func TestBalancesBatchRejectsOversizedRequest(t *testing.T) {
	f, _ := newTestFacade(t)
	outpoints := make([]types.OutPoint, MaxBatchOutpoints+1)
	if _, err := f.BalancesBatch(outpoints); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestBalancesBatchSkipsMissingEntries(t *testing.T) {
	f, store := newTestFacade(t)
	w := store.DirectWriter()

	present := types.OutPoint{TxID: types.Txid{0x03}, Vout: 0}
	missing := types.OutPoint{TxID: types.Txid{0x04}, Vout: 0}
	id := types.RuneId{Block: 1, Tx: 1}

	if err := store.PutOutpointBalances(w, present, []types.RuneBalance{{ID: id, Balance: uint256.NewInt(9)}}); err != nil {
		t.Fatal(err)
	}

	got, err := f.BalancesBatch([]types.OutPoint{present, missing})
	if err != nil {
		t.Fatalf("BalancesBatch: %v", err)
	}
	if _, ok := got[missing]; ok {
		t.Fatalf("expected missing outpoint to be absent from result")
	}
	if bal, ok := got[present]; !ok || bal[0].Balance.Uint64() != 9 {
		t.Fatalf("present outpoint not returned correctly: %+v", got[present])
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount       uint64
		divisibility uint8
		want         string
	}{
		{1000, 0, "1000"},
		{1000, 2, "10.00"},
		{5, 2, "0.05"},
		{123456789, 8, "1.23456789"},
	}
	for _, c := range cases {
		got := FormatAmount(uint256.NewInt(c.amount), c.divisibility)
		if got != c.want {
			t.Fatalf("FormatAmount(%d, %d) = %q, want %q", c.amount, c.divisibility, got, c.want)
		}
	}
}
