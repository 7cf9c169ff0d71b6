package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/internal/rpc"
	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/internal/storage"
	"github.com/klingon-tech/runeindex/pkg/types"
)

// buildBlock assembles a minimal valid block: one coinbase transaction,
// a correct merkle root, and the given previous-block hash.
func buildBlock(prev types.Hash) *wire.MsgBlock {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  []byte{0x01},
		Sequence:         0xffffffff,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: 5000000000, PkScript: []byte{0x51, 0x20}})

	merkle := coinbase.TxHash()

	header := wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash(prev),
		MerkleRoot: merkle,
		Timestamp:  time.Unix(1700000000, 0),
		Bits:       0x1d00ffff,
		Nonce:      0,
	}

	blk := wire.NewMsgBlock(&header)
	blk.AddTransaction(coinbase)
	return blk
}

func newTestIndexer(start uint64) (*Indexer, *rpc.FakeClient, *runes.Store) {
	db := storage.NewMemory()
	store := runes.NewStore(db)
	client := rpc.NewFakeClient()
	return New(store, client, start), client, store
}

func registerBlock(client *rpc.FakeClient, height uint64, blk *wire.MsgBlock) types.BlockHash {
	hash := types.BlockHash(blk.Header.BlockHash())
	client.HashesByHeight[height] = hash
	client.Blocks[hash] = blk
	client.Heights[hash] = height
	return hash
}

func TestProcessNextIndexesAndAdvancesTip(t *testing.T) {
	ix, client, store := newTestIndexer(840000)

	blk := buildBlock(types.Hash{})
	registerBlock(client, 840000, blk)

	if err := ix.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext: %v", err)
	}

	tip, ok, err := store.GetTipHeight()
	if err != nil || !ok || tip != 840000 {
		t.Fatalf("tip = %d, %v, %v", tip, ok, err)
	}

	hdr, err := store.GetBlockHeader(840000)
	if err != nil {
		t.Fatalf("GetBlockHeader: %v", err)
	}
	if hdr.BlockHash() != blk.Header.BlockHash() {
		t.Fatalf("stored header hash mismatch")
	}

	if ix.NextHeight() != 840001 {
		t.Fatalf("NextHeight = %d, want 840001", ix.NextHeight())
	}
}

func TestProcessNextNodeNotCaughtUp(t *testing.T) {
	ix, _, _ := newTestIndexer(840000)

	err := ix.ProcessNext(context.Background())
	if err != ErrNodeNotCaughtUp {
		t.Fatalf("expected ErrNodeNotCaughtUp, got %v", err)
	}
}

func TestProcessNextSequentialBlocks(t *testing.T) {
	ix, client, store := newTestIndexer(840000)

	blk1 := buildBlock(types.Hash{})
	hash1 := registerBlock(client, 840000, blk1)

	if err := ix.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext block 1: %v", err)
	}

	blk2 := buildBlock(types.Hash(hash1))
	registerBlock(client, 840001, blk2)

	if err := ix.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext block 2: %v", err)
	}

	tip, ok, err := store.GetTipHeight()
	if err != nil || !ok || tip != 840001 {
		t.Fatalf("tip = %d, %v, %v", tip, ok, err)
	}
}

func TestCheckMerkleRootRejectsMismatch(t *testing.T) {
	blk := buildBlock(types.Hash{})
	blk.Header.MerkleRoot = chainhash.Hash{0xFF}

	if checkMerkleRoot(blk) {
		t.Fatal("expected merkle root check to fail on tampered root")
	}
}
