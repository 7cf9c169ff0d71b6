package rpc

import (
	"context"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// FakeClient is an in-memory Client for tests: a fixed table of blocks by
// height/hash plus previous-output lookups, with no network access.
type FakeClient struct {
	HashesByHeight map[uint64]types.BlockHash
	Blocks         map[types.BlockHash]*wire.MsgBlock
	Heights        map[types.Hash]uint64
	PrevScripts    map[types.OutPoint][]byte
	PrevBlocks     map[types.OutPoint]types.Hash
}

// NewFakeClient returns an empty FakeClient ready to be populated by a test.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		HashesByHeight: make(map[uint64]types.BlockHash),
		Blocks:         make(map[types.BlockHash]*wire.MsgBlock),
		Heights:        make(map[types.Hash]uint64),
		PrevScripts:    make(map[types.OutPoint][]byte),
		PrevBlocks:     make(map[types.OutPoint]types.Hash),
	}
}

func (f *FakeClient) BlockHash(ctx context.Context, height uint64) (types.BlockHash, error) {
	h, ok := f.HashesByHeight[height]
	if !ok {
		return types.BlockHash{}, ErrNotFound
	}
	return h, nil
}

func (f *FakeClient) Block(ctx context.Context, hash types.BlockHash) (*wire.MsgBlock, error) {
	b, ok := f.Blocks[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *FakeClient) BlockHeight(ctx context.Context, hash types.Hash) (uint64, error) {
	h, ok := f.Heights[hash]
	if !ok {
		return 0, ErrNotFound
	}
	return h, nil
}

func (f *FakeClient) PrevOutput(ctx context.Context, txid types.Txid, vout uint32) ([]byte, types.Hash, error) {
	op := types.OutPoint{TxID: txid, Vout: vout}
	script, ok := f.PrevScripts[op]
	if !ok {
		return nil, types.Hash{}, ErrNotFound
	}
	return script, f.PrevBlocks[op], nil
}
