package rpc

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/pkg/types"
)

var (
	_ Client            = (*BitcoindClient)(nil)
	_ Client            = (*FakeClient)(nil)
	_ runes.CommitOracle = (*FakeClient)(nil)
)

func TestFakeClientLookups(t *testing.T) {
	f := NewFakeClient()

	var hash types.BlockHash
	hash[0] = 0x01
	f.HashesByHeight[840000] = hash
	f.Blocks[hash] = &wire.MsgBlock{}

	var blockHash types.Hash
	blockHash[0] = 0x02
	f.Heights[blockHash] = 839990

	txid := types.Txid{0x03}
	op := types.OutPoint{TxID: txid, Vout: 0}
	f.PrevScripts[op] = []byte{0x51, 0x20}
	f.PrevBlocks[op] = blockHash

	ctx := context.Background()

	got, err := f.BlockHash(ctx, 840000)
	if err != nil || got != hash {
		t.Fatalf("BlockHash: got %v, %v", got, err)
	}
	if _, err := f.BlockHash(ctx, 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown height, got %v", err)
	}

	blk, err := f.Block(ctx, hash)
	if err != nil || blk == nil {
		t.Fatalf("Block: got %v, %v", blk, err)
	}

	height, err := f.BlockHeight(ctx, blockHash)
	if err != nil || height != 839990 {
		t.Fatalf("BlockHeight: got %d, %v", height, err)
	}

	script, gotBlockHash, err := f.PrevOutput(ctx, txid, 0)
	if err != nil || gotBlockHash != blockHash || len(script) != 2 {
		t.Fatalf("PrevOutput: got %x, %v, %v", script, gotBlockHash, err)
	}

	if _, _, err := f.PrevOutput(ctx, txid, 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown vout, got %v", err)
	}
}
