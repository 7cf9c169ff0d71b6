// Runeindex daemon: follows a bitcoind node and maintains an
// independently queryable index of Runes meta-asset state.
//
// Usage:
//
//	runeindexd [options]  Run the indexer
//	runeindexd --help     Show help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klingon-tech/runeindex/config"
	"github.com/klingon-tech/runeindex/internal/indexer"
	rlog "github.com/klingon-tech/runeindex/internal/log"
	"github.com/klingon-tech/runeindex/internal/query"
	"github.com/klingon-tech/runeindex/internal/rpc"
	"github.com/klingon-tech/runeindex/internal/runes"
	"github.com/klingon-tech/runeindex/internal/scheduler"
	"github.com/klingon-tech/runeindex/internal/storage"
)

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params, err := config.ParamsFor(cfg.Network)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Init logger ───────────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logs dir: %v\n", err)
			os.Exit(1)
		}
		logFile = logsDir + "/runeindex.log"
	}
	if err := rlog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := rlog.WithComponent("main")

	logger.Info().
		Str("network", string(cfg.Network)).
		Uint64("activation_height", params.ActivationHeight).
		Msg("Starting runeindexd")

	// ── 3. Open storage ──────────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBDir()).Msg("failed to open database")
	}
	defer db.Close()

	store := runes.NewStore(db)
	logger.Info().Str("path", cfg.DBDir()).Msg("database opened")

	// ── 4. Connect to bitcoind ───────────────────────────────────────────
	client, err := rpc.NewBitcoindClient(rpc.BitcoindConfig{
		Host:         cfg.RPC.Host,
		User:         cfg.RPC.User,
		Pass:         cfg.RPC.Pass,
		DisableTLS:   cfg.RPC.DisableTLS,
		HTTPPostMode: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("host", cfg.RPC.Host).Msg("failed to connect to bitcoind")
	}
	defer client.Shutdown()
	logger.Info().Str("host", cfg.RPC.Host).Msg("connected to bitcoind")

	// ── 5. Optionally connect to a second node for reorg cross-checks ───
	var headerOracle *rpc.BitcoindClient
	if cfg.HeaderOracle.Enabled {
		headerOracle, err = rpc.NewBitcoindClient(rpc.BitcoindConfig{
			Host:         cfg.HeaderOracle.Host,
			User:         cfg.HeaderOracle.User,
			Pass:         cfg.HeaderOracle.Pass,
			DisableTLS:   cfg.HeaderOracle.DisableTLS,
			HTTPPostMode: true,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("host", cfg.HeaderOracle.Host).Msg("failed to connect to header oracle")
		}
		defer headerOracle.Shutdown()
		logger.Info().Str("host", cfg.HeaderOracle.Host).Msg("connected to header oracle")
	}

	// ── 6. Report resume point, then build the indexer and scheduler ────
	facade := query.New(store)
	if height, hash, err := facade.LatestBlock(); err == nil {
		logger.Info().Uint64("height", height).Str("tip", hash.String()).Msg("resuming from stored tip")
	} else {
		logger.Info().Msg("no blocks indexed yet, starting from activation height")
	}

	var ix *indexer.Indexer
	if headerOracle != nil {
		ix = indexer.NewWithHeaderOracle(store, client, headerOracle, params.ActivationHeight)
	} else {
		ix = indexer.New(store, client, params.ActivationHeight)
	}

	sched := scheduler.New(ix, cfg.Scheduler.Interval)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	logger.Info().Dur("interval", cfg.Scheduler.Interval).Msg("indexer scheduler started")

	// ── 7. Wait for shutdown ─────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
}
