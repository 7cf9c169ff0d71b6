package config

import "time"

// DefaultMainnet returns the default indexer configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Host:    "127.0.0.1:8332",
			Timeout: 30 * time.Second,
		},
		HeaderOracle: HeaderOracleConfig{
			Enabled: false,
		},
		Scheduler: SchedulerConfig{
			Interval: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default indexer configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.Host = "127.0.0.1:18332"
	return cfg
}

// DefaultRegtest returns the default indexer configuration for regtest.
func DefaultRegtest() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Regtest
	cfg.RPC.Host = "127.0.0.1:18443"
	return cfg
}

// Default returns the default indexer configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Regtest:
		return DefaultRegtest()
	default:
		return DefaultMainnet()
	}
}
