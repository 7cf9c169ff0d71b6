package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultMainnetIsValid(t *testing.T) {
	if err := Validate(DefaultMainnet()); err != nil {
		t.Fatalf("DefaultMainnet invalid: %v", err)
	}
}

func TestDefaultTestnetUsesTestnetRPCPort(t *testing.T) {
	cfg := DefaultTestnet()
	if cfg.Network != Testnet {
		t.Fatalf("network = %s, want testnet", cfg.Network)
	}
	if cfg.RPC.Host != "127.0.0.1:18332" {
		t.Fatalf("rpc.host = %s, want 127.0.0.1:18332", cfg.RPC.Host)
	}
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Network = NetworkType("signet")
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestValidateRejectsEmptyRPCHost(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.RPC.Host = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty rpc.host")
	}
}

func TestValidateRejectsOracleWithoutHost(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.HeaderOracle.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled oracle without host")
	}
}

func TestLoadFileAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runeindex.conf")
	contents := "network = testnet\nrpc.host = 10.0.0.1:8332\nrpc.user = alice\nscheduler.interval = 5s\nsubscribers = hook1@http://a, hook2@http://b\nlog.json = true\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.Network != Testnet {
		t.Fatalf("network = %s, want testnet", cfg.Network)
	}
	if cfg.RPC.Host != "10.0.0.1:8332" || cfg.RPC.User != "alice" {
		t.Fatalf("rpc = %+v", cfg.RPC)
	}
	if cfg.Scheduler.Interval != 5*time.Second {
		t.Fatalf("scheduler.interval = %v, want 5s", cfg.Scheduler.Interval)
	}
	if len(cfg.Subscribers) != 2 || cfg.Subscribers[0].Name != "hook1" || cfg.Subscribers[0].URL != "http://a" {
		t.Fatalf("subscribers = %+v", cfg.Subscribers)
	}
	if !cfg.Log.JSON {
		t.Fatal("log.json should be true")
	}
}

func TestEnsureDataDirsIsIdempotent(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.DataDir = t.TempDir()

	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("first EnsureDataDirs: %v", err)
	}
	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("second EnsureDataDirs: %v", err)
	}

	if _, err := os.Stat(cfg.DBDir()); err != nil {
		t.Fatalf("DBDir not created: %v", err)
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}
