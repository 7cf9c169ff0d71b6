package config

import "fmt"

// Validate checks runtime indexer config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := ParamsFor(cfg.Network); err != nil {
		return err
	}
	if cfg.RPC.Host == "" {
		return fmt.Errorf("rpc.host is required")
	}
	if cfg.HeaderOracle.Enabled && cfg.HeaderOracle.Host == "" {
		return fmt.Errorf("oracle.host is required when oracle.enabled is true")
	}
	if cfg.Scheduler.Interval < 0 {
		return fmt.Errorf("scheduler.interval must not be negative")
	}
	for i, s := range cfg.Subscribers {
		if s.URL == "" {
			return fmt.Errorf("subscribers[%d] has an empty url", i)
		}
	}
	return nil
}
