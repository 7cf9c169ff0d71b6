// Package rpc defines the external collaborator contract this indexer
// consumes from a Bitcoin node: block hash/height lookups, raw blocks,
// and the previous-output/confirmation-depth lookups the etching
// commitment check needs. The JSON-RPC transport itself (chunked
// retrieval, retry policy) is explicitly out of scope; this package only
// defines the interface and a concrete bitcoind-backed implementation.
package rpc

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// ErrNotFound is returned when the node has no knowledge of the
// requested block, transaction or output.
var ErrNotFound = errors.New("rpc: not found")

// Client is the set of node lookups the block indexer, reorg controller
// and rune updater's commitment check depend on.
type Client interface {
	// BlockHash returns the hash of the block at height, per
	// getblockhash.
	BlockHash(ctx context.Context, height uint64) (types.BlockHash, error)
	// Block returns the fully decoded block identified by hash, per
	// getblock with verbosity 0 (raw hex, decoded client-side).
	Block(ctx context.Context, hash types.BlockHash) (*wire.MsgBlock, error)
	// BlockHeight returns the height of the block identified by hash,
	// per getblockheader. Doubles as runes.CommitOracle.BlockHeight.
	BlockHeight(ctx context.Context, hash types.Hash) (uint64, error)
	// PrevOutput returns the output script and containing block hash of
	// the output at (txid, vout), per getrawtransaction with verbose=true.
	// Doubles as runes.CommitOracle.PrevOutput.
	PrevOutput(ctx context.Context, txid types.Txid, vout uint32) (script []byte, blockHash types.Hash, err error)
}
