package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads indexer configuration from a .conf file.
// Format: key = value (one per line, # for comments).
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.host":
		cfg.RPC.Host = value
	case "rpc.user":
		cfg.RPC.User = value
	case "rpc.pass":
		cfg.RPC.Pass = value
	case "rpc.disabletls":
		cfg.RPC.DisableTLS = parseBool(value)
	case "rpc.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Header oracle
	case "oracle.enabled":
		cfg.HeaderOracle.Enabled = parseBool(value)
	case "oracle.host":
		cfg.HeaderOracle.Host = value
	case "oracle.user":
		cfg.HeaderOracle.User = value
	case "oracle.pass":
		cfg.HeaderOracle.Pass = value
	case "oracle.disabletls":
		cfg.HeaderOracle.DisableTLS = parseBool(value)

	// Scheduler
	case "scheduler.interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Scheduler.Interval = d

	// Subscribers (name@url, comma-separated)
	case "subscribers":
		cfg.Subscribers = parseSubscribers(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored.
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseSubscribers parses a comma-separated "name@url" list.
func parseSubscribers(s string) []SubscriberConfig {
	entries := parseStringList(s)
	if entries == nil {
		return nil
	}
	out := make([]SubscriberConfig, 0, len(entries))
	for _, e := range entries {
		name, url, ok := strings.Cut(e, "@")
		if !ok {
			out = append(out, SubscriberConfig{URL: e})
			continue
		}
		out = append(out, SubscriberConfig{Name: name, URL: url})
	}
	return out
}

// WriteDefaultConfig writes a default indexer configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Runeindex configuration
#
# network: mainnet, testnet, or regtest
network = ` + string(network) + `

# ============================================================================
# Bitcoin node RPC
# ============================================================================

rpc.host = ` + defaultRPCHost(network) + `
# rpc.user =
# rpc.pass =
rpc.disabletls = true
rpc.timeout = 30s

# ============================================================================
# Header oracle (optional second node for reorg cross-checks)
# ============================================================================

oracle.enabled = false
# oracle.host =
# oracle.user =
# oracle.pass =

# ============================================================================
# Scheduler
# ============================================================================

scheduler.interval = 10s

# ============================================================================
# Subscribers (comma-separated name@url webhook targets)
# ============================================================================

# subscribers =

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultRPCHost(network NetworkType) string {
	switch network {
	case Testnet:
		return "127.0.0.1:18332"
	case Regtest:
		return "127.0.0.1:18443"
	default:
		return "127.0.0.1:8332"
	}
}
