package config

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/klingon-tech/runeindex/internal/runes"
)

// NetworkParams are the per-network constants that bound genuinely
// vary between mainnet, testnet and regtest: where Runes activated,
// how many confirmations an etching commitment needs, and the btcd
// chain parameters describing the network's address/script rules.
type NetworkParams struct {
	// ActivationHeight is the first block this indexer will ever
	// fetch on this network when it has no recorded tip.
	ActivationHeight uint64

	// CommitConfirmations mirrors runes.CommitConfirmations. It is
	// the same value on every network today; it is carried here,
	// rather than hardcoded only in internal/runes, so a future
	// network fork that changes the confirmation floor has somewhere
	// to express that without touching the rune state machine.
	CommitConfirmations uint64

	ChainParams *chaincfg.Params
}

// mainnetParams is the height at which Runes activated on Bitcoin
// mainnet (block 840000, the same block as the fourth halving).
var mainnetParams = NetworkParams{
	ActivationHeight:    840_000,
	CommitConfirmations: runes.CommitConfirmations,
	ChainParams:         &chaincfg.MainNetParams,
}

var testnetParams = NetworkParams{
	ActivationHeight:    840_000,
	CommitConfirmations: runes.CommitConfirmations,
	ChainParams:         &chaincfg.TestNet3Params,
}

var regtestParams = NetworkParams{
	ActivationHeight:    0,
	CommitConfirmations: runes.CommitConfirmations,
	ChainParams:         &chaincfg.RegressionNetParams,
}

// ParamsFor returns the NetworkParams for network.
func ParamsFor(network NetworkType) (NetworkParams, error) {
	switch network {
	case Mainnet:
		return mainnetParams, nil
	case Testnet:
		return testnetParams, nil
	case Regtest:
		return regtestParams, nil
	default:
		return NetworkParams{}, fmt.Errorf("config: unknown network %q", network)
	}
}
