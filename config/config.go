// Package config handles application configuration for the indexer
// daemon: which network to follow, how to reach the Bitcoin node(s) it
// reads from, how often to poll, and where to put its data.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies which Bitcoin network to index.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Regtest NetworkType = "regtest"
)

// Config holds the indexer's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC is the bitcoind node this indexer fetches blocks and
	// previous-output data from.
	RPC RPCConfig

	// HeaderOracle is an optional second trusted endpoint the reorg
	// controller cross-checks node-reported block hashes against
	// during reorg detection. When disabled, RPC itself serves as the oracle.
	HeaderOracle HeaderOracleConfig

	// Subscribers are webhook-style notification targets. Out of the
	// indexing core's scope, but the config shape carries them so a
	// notifier built on top of this package has somewhere to read
	// them from.
	Subscribers []SubscriberConfig

	// Scheduler controls how often the indexer polls for new blocks.
	Scheduler SchedulerConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds bitcoind JSON-RPC connection settings.
type RPCConfig struct {
	Host       string        `conf:"rpc.host"`
	User       string        `conf:"rpc.user"`
	Pass       string        `conf:"rpc.pass"`
	DisableTLS bool          `conf:"rpc.disabletls"`
	Timeout    time.Duration `conf:"rpc.timeout"`
}

// HeaderOracleConfig holds the optional second RPC endpoint used for
// reorg cross-checks.
type HeaderOracleConfig struct {
	Enabled    bool   `conf:"oracle.enabled"`
	Host       string `conf:"oracle.host"`
	User       string `conf:"oracle.user"`
	Pass       string `conf:"oracle.pass"`
	DisableTLS bool   `conf:"oracle.disabletls"`
}

// SubscriberConfig names a single notification target.
type SubscriberConfig struct {
	Name string
	URL  string
}

// SchedulerConfig controls the polling cadence.
type SchedulerConfig struct {
	Interval time.Duration `conf:"scheduler.interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.runeindex
//	macOS:   ~/Library/Application Support/Runeindex
//	Windows: %APPDATA%\Runeindex
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".runeindex"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Runeindex")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Runeindex")
		}
		return filepath.Join(home, "AppData", "Roaming", "Runeindex")
	default:
		return filepath.Join(home, ".runeindex")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the key-value store directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.ChainDataDir(), "db")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "runeindex.conf")
}
