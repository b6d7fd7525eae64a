package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/config"
	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/orchestrator"
	"pairs-trading-lab/internal/reporting"
	"pairs-trading-lab/internal/storage/backend"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML run configuration (sectors, screen, storage)")
	tickers := flag.String("tickers", "", "Comma-separated tickers screened as one sector (overrides config sectors)")
	allStored := flag.Bool("all", false, "Screen every stored ticker as one sector")
	workers := flag.Int("workers", 0, "Parallel screening workers (overrides config when > 0)")
	backtestTop := flag.Int("backtest-top", 0, "Backtest the N strongest passing pairs after screening (0 disables)")
	debug := flag.Bool("debug", false, "Development logging at debug level")

	flag.Parse()

	logger, err := observability.NewLogger(*debug, "screen")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *workers > 0 {
		cfg.Screen.Workers = *workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	metrics := observability.NewMetrics("pairs")

	store, err := backend.Open(ctx, cfg.Storage, false, metrics, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer store.Close()

	sectors := cfg.Sectors
	switch {
	case *tickers != "":
		sectors = map[string][]string{"custom": splitTickers(*tickers)}
	case *allStored:
		stored, err := store.ListTickers(ctx)
		if err != nil {
			logger.Fatal("list tickers", zap.Error(err))
		}
		sectors = map[string][]string{"all": stored}
	}

	candidates, skipped, err := cointegration.LoadCandidates(ctx, store, sectors, cfg.Data.TrainFraction)
	if err != nil {
		logger.Fatal("load candidates", zap.Error(err))
	}
	for _, pair := range skipped {
		metrics.RecordScreened("no_data")
		logger.Warn("pair skipped, no overlapping bars", zap.String("pair", pair))
	}

	all, passing, err := cointegration.Screen(ctx, cointegration.NewJohansen(), candidates, cfg.Screen)
	if err != nil {
		logger.Fatal("screen failed", zap.Error(err))
	}
	for _, res := range all {
		switch {
		case res.Err != nil:
			metrics.RecordScreened("error")
		case res.Passes(cfg.Screen):
			metrics.RecordScreened("passed")
		default:
			metrics.RecordScreened("rejected")
		}
	}
	logger.Info("screening complete",
		zap.Int("pairs", len(all)),
		zap.Int("passed", len(passing)),
		zap.Int("skipped", len(skipped)),
	)

	fmt.Print(reporting.RenderScreenMarkdown(reporting.NewScreenRows(all, cfg.Screen), time.Now()))

	if *backtestTop > 0 && len(passing) > 0 {
		runner := backtest.NewRunner(store, cointegration.NewJohansen(),
			backtest.WithLogger(logger),
			backtest.WithMetrics(metrics),
		)
		orch, err := orchestrator.New(orchestrator.Options{
			Runner:        runner,
			Config:        cfg.Backtest,
			TrainFraction: cfg.Data.TrainFraction,
			Overlay:       cfg.Data.Overlay,
			From:          cfg.Data.From,
			To:            cfg.Data.To,
			Workers:       cfg.Screen.Workers,
			Logger:        logger,
		})
		if err != nil {
			logger.Fatal("create orchestrator", zap.Error(err))
		}
		batch, err := orch.Run(ctx, orchestrator.Top(passing, *backtestTop))
		if err != nil {
			logger.Fatal("batch backtest failed", zap.Error(err))
		}
		fmt.Println()
		fmt.Print(reporting.RenderBatchMarkdown(reporting.NewBatchRows(batch.Runs), time.Now()))
	}

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url, "pairs_screen"); err != nil {
			logger.Warn("push metrics", zap.String("url", url), zap.Error(err))
		}
	}
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
