package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// RPC
	RPCHost       string
	RPCUser       string
	RPCPass       string
	RPCDisableTLS bool
	RPCTimeout    time.Duration

	// Header oracle
	OracleHost       string
	OracleUser       string
	OraclePass       string
	OracleDisableTLS bool

	// Scheduler
	SchedulerInterval time.Duration

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetRPCDisableTLS    bool
	SetOracleEnabled    bool
	OracleEnabled       bool
	SetOracleDisableTLS bool
	SetLogJSON          bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("runeindexd", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet, or regtest)")
	var testnet bool
	fs.BoolVar(&testnet, "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// RPC
	fs.StringVar(&f.RPCHost, "rpc-host", "", "bitcoind RPC host:port")
	fs.StringVar(&f.RPCUser, "rpc-user", "", "bitcoind RPC username")
	fs.StringVar(&f.RPCPass, "rpc-pass", "", "bitcoind RPC password")
	fs.BoolVar(&f.RPCDisableTLS, "rpc-disable-tls", false, "Disable TLS for the RPC connection")
	fs.DurationVar(&f.RPCTimeout, "rpc-timeout", 0, "bitcoind RPC request timeout")

	// Header oracle
	fs.BoolVar(&f.OracleEnabled, "oracle", false, "Enable a second header-oracle RPC endpoint for reorg checks")
	fs.StringVar(&f.OracleHost, "oracle-host", "", "Header oracle RPC host:port")
	fs.StringVar(&f.OracleUser, "oracle-user", "", "Header oracle RPC username")
	fs.StringVar(&f.OraclePass, "oracle-pass", "", "Header oracle RPC password")
	fs.BoolVar(&f.OracleDisableTLS, "oracle-disable-tls", false, "Disable TLS for the header oracle connection")

	// Scheduler
	fs.DurationVar(&f.SchedulerInterval, "poll-interval", 0, "How often to poll for new blocks")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if isFlagSet(fs, "testnet") {
		f.Network = "testnet"
	}
	f.SetRPCDisableTLS = isFlagSet(fs, "rpc-disable-tls")
	f.SetOracleEnabled = isFlagSet(fs, "oracle")
	f.SetOracleDisableTLS = isFlagSet(fs, "oracle-disable-tls")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// RPC
	if f.RPCHost != "" {
		cfg.RPC.Host = f.RPCHost
	}
	if f.RPCUser != "" {
		cfg.RPC.User = f.RPCUser
	}
	if f.RPCPass != "" {
		cfg.RPC.Pass = f.RPCPass
	}
	if f.SetRPCDisableTLS {
		cfg.RPC.DisableTLS = f.RPCDisableTLS
	}
	if f.RPCTimeout != 0 {
		cfg.RPC.Timeout = f.RPCTimeout
	}

	// Header oracle
	if f.SetOracleEnabled {
		cfg.HeaderOracle.Enabled = f.OracleEnabled
	}
	if f.OracleHost != "" {
		cfg.HeaderOracle.Host = f.OracleHost
	}
	if f.OracleUser != "" {
		cfg.HeaderOracle.User = f.OracleUser
	}
	if f.OraclePass != "" {
		cfg.HeaderOracle.Pass = f.OraclePass
	}
	if f.SetOracleDisableTLS {
		cfg.HeaderOracle.DisableTLS = f.OracleDisableTLS
	}

	// Scheduler
	if f.SchedulerInterval != 0 {
		cfg.Scheduler.Interval = f.SchedulerInterval
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `runeindexd - Bitcoin Runes meta-asset indexer

Usage:
  runeindexd [options]
  runeindexd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network           Network type: mainnet (default), testnet, or regtest
  --testnet           Shorthand for --network=testnet
  --datadir           Data directory (default: ~/.runeindex)
  --config, -c        Config file path (default: <datadir>/runeindex.conf)

RPC Options:
  --rpc-host          bitcoind RPC host:port
  --rpc-user          bitcoind RPC username
  --rpc-pass          bitcoind RPC password
  --rpc-disable-tls   Disable TLS for the RPC connection
  --rpc-timeout       bitcoind RPC request timeout (e.g. 30s); stored in the
                      config but not applied to the bitcoind connection

Header Oracle Options:
  --oracle              Enable a second RPC endpoint for reorg cross-checks
  --oracle-host         Header oracle RPC host:port
  --oracle-user         Header oracle RPC username
  --oracle-pass         Header oracle RPC password
  --oracle-disable-tls  Disable TLS for the header oracle connection

Scheduler Options:
  --poll-interval     How often to poll for new blocks (default: 10s)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: <datadir>/logs/runeindex.log)
  --log-json      Output logs as JSON

Examples:
  # Index mainnet against a local bitcoind
  runeindexd --rpc-user=alice --rpc-pass=secret

  # Index testnet with a custom data directory
  runeindexd --network=testnet --datadir=/path/to/data
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("runeindexd version 0.1.0")
		os.Exit(0)
	}

	network := Mainnet
	switch strings.ToLower(flags.Network) {
	case "testnet":
		network = Testnet
	case "regtest":
		network = Regtest
	}

	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default
// config file if they don't already exist. Idempotent — safe to call
// on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.ChainDataDir(),
		cfg.DBDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
