package rpc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-tech/runeindex/pkg/types"
)

// BitcoindClient implements Client against a real bitcoind node over
// JSON-RPC 1.0, via btcsuite/btcd/rpcclient — the same library family
// the retrieved bitcoind-RPC example pack uses.
type BitcoindClient struct {
	rpc *rpcclient.Client
}

// BitcoindConfig is the subset of connection settings NewBitcoindClient
// needs: host:port, basic-auth credentials, and whether the endpoint
// terminates TLS.
type BitcoindConfig struct {
	Host         string
	User         string
	Pass         string
	DisableTLS   bool
	HTTPPostMode bool
}

// NewBitcoindClient dials a bitcoind node. The connection is HTTP POST
// mode (no persistent websocket), matching bitcoind's JSON-RPC 1.0
// transport.
func NewBitcoindClient(cfg BitcoindConfig) (*BitcoindClient, error) {
	conn := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   cfg.DisableTLS,
	}
	c, err := rpcclient.New(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: connect bitcoind: %w", err)
	}
	return &BitcoindClient{rpc: c}, nil
}

// Shutdown closes the underlying connection.
func (c *BitcoindClient) Shutdown() {
	c.rpc.Shutdown()
}

func (c *BitcoindClient) BlockHash(ctx context.Context, height uint64) (types.BlockHash, error) {
	h, err := c.rpc.GetBlockHash(int64(height))
	if err != nil {
		return types.BlockHash{}, fmt.Errorf("rpc: getblockhash(%d): %w", height, err)
	}
	return types.BlockHash(*h), nil
}

func (c *BitcoindClient) Block(ctx context.Context, hash types.BlockHash) (*wire.MsgBlock, error) {
	h := chainhash.Hash(hash)
	blk, err := c.rpc.GetBlock(&h)
	if err != nil {
		return nil, fmt.Errorf("rpc: getblock(%s): %w", hash, err)
	}
	return blk, nil
}

func (c *BitcoindClient) BlockHeight(ctx context.Context, hash types.Hash) (uint64, error) {
	h := chainhash.Hash(hash)
	info, err := c.rpc.GetBlockHeaderVerbose(&h)
	if err != nil {
		return 0, fmt.Errorf("rpc: getblockheader(%s): %w", hash, err)
	}
	return uint64(info.Height), nil
}

func (c *BitcoindClient) PrevOutput(ctx context.Context, txid types.Txid, vout uint32) ([]byte, types.Hash, error) {
	h := chainhash.Hash(txid)
	info, err := c.rpc.GetRawTransactionVerbose(&h)
	if err != nil {
		return nil, types.Hash{}, fmt.Errorf("rpc: getrawtransaction(%s): %w", txid, err)
	}
	if int(vout) >= len(info.Vout) {
		return nil, types.Hash{}, fmt.Errorf("rpc: %w: vout %d on tx %s", ErrNotFound, vout, txid)
	}
	script, err := hex.DecodeString(info.Vout[vout].ScriptPubKey.Hex)
	if err != nil {
		return nil, types.Hash{}, fmt.Errorf("rpc: decode scriptPubKey: %w", err)
	}
	blockHash, err := chainhash.NewHashFromStr(info.BlockHash)
	if err != nil {
		return nil, types.Hash{}, fmt.Errorf("rpc: parse blockhash: %w", err)
	}
	return script, types.Hash(*blockHash), nil
}
