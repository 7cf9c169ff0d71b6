package reorg

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"

	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/internal/storage"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// fakeOracle serves canonical hashes from a fixed map, standing in for
// the node's view of the chain.
type fakeOracle struct {
	byHeight map[uint64]types.BlockHash
}

func (f *fakeOracle) BlockHash(ctx context.Context, height uint64) (types.BlockHash, error) {
	h, ok := f.byHeight[height]
	if !ok {
		return types.BlockHash{}, ErrUnrecoverable
	}
	return h, nil
}

func header(nonce uint32, prev types.Hash) *wire.BlockHeader {
	var h wire.BlockHeader
	h.Version = 1
	h.PrevBlock = prevBlockOf(prev)
	h.Nonce = nonce
	return &h
}

func prevBlockOf(h types.Hash) (out [32]byte) {
	copy(out[:], h[:])
	return out
}

func setup(t *testing.T) (*runes.Store, *fakeOracle) {
	t.Helper()
	db := storage.NewMemory()
	return runes.NewStore(db), &fakeOracle{byHeight: make(map[uint64]types.BlockHash)}
}

func TestDetectInSync(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)

	prev := types.Hash{0x01}
	result, err := ctl.Detect(context.Background(), prev, prev, 100)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Status != InSync {
		t.Fatalf("status = %v, want InSync", result.Status)
	}
}

func TestDetectRecoverableAtDepthThree(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)
	w := store.DirectWriter()

	// Indexed chain: heights 97,98,99 chained by content-derived hashes.
	// The node's chain agrees with ours at 97 but diverged by 98; both
	// 98 and 99 must be rolled back (depth 3, counting the incoming
	// block about to be indexed at height 100 too).
	hdr97 := header(97, types.Hash{})
	hdr98a := header(98, types.Hash(hdr97.BlockHash()))
	hdr99a := header(99, types.Hash(hdr98a.BlockHash()))

	if err := store.PutBlockHeader(w, 97, hdr97); err != nil {
		t.Fatal(err)
	}
	if err := store.PutBlockHeader(w, 98, hdr98a); err != nil {
		t.Fatal(err)
	}
	if err := store.PutBlockHeader(w, 99, hdr99a); err != nil {
		t.Fatal(err)
	}

	// Put ChangeRecords for 98 and 99 so Rollback has something to undo.
	if err := store.PutChangeRecord(w, 98, runes.NewChangeRecord()); err != nil {
		t.Fatal(err)
	}
	if err := store.PutChangeRecord(w, 99, runes.NewChangeRecord()); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatRunes(w, 98, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatRunes(w, 99, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatReservedRunes(w, 98, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatReservedRunes(w, 99, 0); err != nil {
		t.Fatal(err)
	}

	// Oracle agrees with the indexed chain at 97 but not at 98 or 99.
	oracle.byHeight[97] = types.BlockHash(hdr97.BlockHash())
	oracle.byHeight[98] = types.BlockHash{0x98, 0xbb}
	oracle.byHeight[99] = types.BlockHash{0x99, 0xbb}

	result, err := ctl.Detect(context.Background(), types.Hash(hdr99a.BlockHash()), types.Hash{0x99, 0xcc}, 100)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Status != Recoverable {
		t.Fatalf("status = %v, want Recoverable", result.Status)
	}
	if result.Depth != 3 {
		t.Fatalf("depth = %d, want 3", result.Depth)
	}

	if err := ctl.Rollback(result); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := store.GetChangeRecord(98); err != runes.ErrNotFound {
		t.Fatalf("expected change record 98 to be pruned, got %v", err)
	}
	if _, err := store.GetChangeRecord(99); err != runes.ErrNotFound {
		t.Fatalf("expected change record 99 to be pruned, got %v", err)
	}
	if _, err := store.GetBlockHeader(98); err != runes.ErrNotFound {
		t.Fatalf("expected header 98 to be pruned")
	}
	if _, err := store.GetBlockHeader(99); err != runes.ErrNotFound {
		t.Fatalf("expected header 99 to be pruned")
	}
	// Height 97 is outside the rolled-back range and must survive.
	if _, err := store.GetBlockHeader(97); err != nil {
		t.Fatalf("expected header 97 to survive rollback, got %v", err)
	}
}

func TestDetectUnrecoverableWhenHeadersMissing(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)

	// No headers stored at all: every candidate height misses the store,
	// so detection must bottom out as Unrecoverable rather than loop
	// forever or panic on the missing entries.
	result, err := ctl.Detect(context.Background(), types.Hash{0xAA}, types.Hash{0xBB}, 1000)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Status != Unrecoverable {
		t.Fatalf("status = %v, want Unrecoverable", result.Status)
	}
}

func TestDetectUnrecoverableWhenOracleHasNoAnswer(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)
	w := store.DirectWriter()

	hdr := header(1, types.Hash{})
	for height := uint64(1); height <= MaxRecoverableDepth; height++ {
		if err := store.PutBlockHeader(w, 1000-height, hdr); err != nil {
			t.Fatal(err)
		}
	}
	// oracle.byHeight stays empty: every BlockHash call returns an error.

	result, err := ctl.Detect(context.Background(), types.Hash{0xAA}, types.Hash{0xBB}, 1000)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Status != Unrecoverable {
		t.Fatalf("status = %v, want Unrecoverable", result.Status)
	}
}

func TestRollbackRestoresRemovedOutpointsAndRuneEntryCounters(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)
	w := store.DirectWriter()

	id := types.RuneId{Block: 1, Tx: 1}
	entry := types.NewRuneEntry()
	entry.Burned = uint256.NewInt(50)
	entry.Mints = uint256.NewInt(5)
	if err := store.PutRuneEntry(w, id, entry); err != nil {
		t.Fatal(err)
	}

	op := types.OutPoint{TxID: types.Txid{0x01}, Vout: 0}
	change := runes.NewChangeRecord()
	change.RecordRemoved(op, []types.RuneBalance{{ID: id, Balance: uint256.NewInt(7)}}, 5)
	change.RecordBurnedOnce(id, uint256.NewInt(40))
	change.RecordMintsOnce(id, uint256.NewInt(3))

	if err := store.PutChangeRecord(w, 10, change); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatRunes(w, 10, 1); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatReservedRunes(w, 10, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.PutBlockHeader(w, 10, header(10, types.Hash{})); err != nil {
		t.Fatal(err)
	}

	if err := ctl.Rollback(Result{Status: Recoverable, Height: 11, Depth: 2}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	balances, err := store.GetOutpointBalances(op)
	if err != nil {
		t.Fatalf("GetOutpointBalances: %v", err)
	}
	if len(balances) != 1 || balances[0].Balance.Uint64() != 7 {
		t.Fatalf("balances not restored: %+v", balances)
	}
	height, err := store.GetOutpointHeight(op)
	if err != nil || height != 5 {
		t.Fatalf("outpoint height not restored: %d, %v", height, err)
	}

	restored, err := store.GetRuneEntry(id)
	if err != nil {
		t.Fatalf("GetRuneEntry: %v", err)
	}
	if restored.Burned.Uint64() != 40 {
		t.Fatalf("burned = %d, want 40", restored.Burned.Uint64())
	}
	if restored.Mints.Uint64() != 3 {
		t.Fatalf("mints = %d, want 3", restored.Mints.Uint64())
	}
}

func TestRollbackUndoesEtching(t *testing.T) {
	store, oracle := setup(t)
	ctl := NewController(store, oracle)
	w := store.DirectWriter()

	id := types.RuneId{Block: 840000, Tx: 1}
	txid := types.Txid{0x09}
	name := types.SpacedRune{Rune: *uint256.NewInt(123456789)}

	entry := types.NewRuneEntry()
	entry.SpacedRune = name
	if err := store.PutRuneEntry(w, id, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.PutRuneByName(w, &name.Rune, id); err != nil {
		t.Fatal(err)
	}
	if err := store.PutEtching(w, txid, &name.Rune); err != nil {
		t.Fatal(err)
	}

	change := runes.NewChangeRecord()
	change.RecordEtched(name, id, txid)
	if err := store.PutChangeRecord(w, 20, change); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatRunes(w, 20, 1); err != nil {
		t.Fatal(err)
	}
	if err := store.PutStatReservedRunes(w, 20, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.PutBlockHeader(w, 20, header(20, types.Hash{})); err != nil {
		t.Fatal(err)
	}

	if err := ctl.Rollback(Result{Status: Recoverable, Height: 21, Depth: 2}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := store.GetRuneEntry(id); err != runes.ErrNotFound {
		t.Fatalf("expected rune entry to be removed, got %v", err)
	}
	if _, err := store.GetRuneByName(&name.Rune); err != runes.ErrNotFound {
		t.Fatalf("expected rune-by-name to be removed, got %v", err)
	}
	if _, err := store.GetEtching(txid); err != runes.ErrNotFound {
		t.Fatalf("expected etching to be removed, got %v", err)
	}
}
