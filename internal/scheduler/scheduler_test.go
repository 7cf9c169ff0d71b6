package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/internal/indexer"
	"github.com/klingon-tech/runeindex/internal/rpc"
	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/internal/storage"
	"github.com/klingon-tech/runeindex/pkg/types"
)

func buildBlock(prev chainhash.Hash) *wire.MsgBlock {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  []byte{0x01},
		Sequence:         0xffffffff,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: 5000000000, PkScript: []byte{0x51, 0x20}})

	header := wire.BlockHeader{
		Version:    1,
		PrevBlock:  prev,
		MerkleRoot: coinbase.TxHash(),
		Timestamp:  time.Unix(1700000000, 0),
		Bits:       0x1d00ffff,
	}
	blk := wire.NewMsgBlock(&header)
	blk.AddTransaction(coinbase)
	return blk
}

// TestSchedulerDrainsThenStops registers one block, starts the
// scheduler, and confirms it indexes the block and advances the tip
// without the caller having to wait out a full tick interval.
func TestSchedulerDrainsThenStops(t *testing.T) {
	db := storage.NewMemory()
	store := runes.NewStore(db)
	client := rpc.NewFakeClient()
	ix := indexer.New(store, client, 840000)

	blk := buildBlock(chainhash.Hash{})
	hash := types.BlockHash(blk.Header.BlockHash())
	client.HashesByHeight[840000] = hash
	client.Blocks[hash] = blk

	s := New(ix, time.Hour)
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		tip, ok, err := store.GetTipHeight()
		if err == nil && ok && tip == 840000 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scheduler did not index block in time (tip=%d ok=%v err=%v)", tip, ok, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
}

func TestSchedulerDefaultInterval(t *testing.T) {
	db := storage.NewMemory()
	store := runes.NewStore(db)
	client := rpc.NewFakeClient()
	ix := indexer.New(store, client, 840000)

	s := New(ix, 0)
	if s.interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", s.interval, DefaultInterval)
	}
}
