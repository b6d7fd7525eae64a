package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/config"
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/ingestion"
	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/reporting"
	"pairs-trading-lab/internal/storage/backend"
	"pairs-trading-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML run configuration (defaults apply when empty)")
	tickerY := flag.String("y", "", "Dependent ticker (overrides config)")
	tickerX := flag.String("x", "", "Independent ticker (overrides config)")
	yCSV := flag.String("y-csv", "", "Load Y closes from CSV before running (date,close)")
	xCSV := flag.String("x-csv", "", "Load X closes from CSV before running (date,close)")
	theta := flag.Float64("theta", 0, "Entry threshold on |z| (overrides config when > 0)")
	eig1 := flag.Float64("eig1", 0, "Initial vector Eig1; with -eig2 skips the training estimate")
	eig2 := flag.Float64("eig2", 0, "Initial vector Eig2")
	migrate := flag.Bool("migrate", false, "Apply storage migrations before running")
	verify := flag.Bool("verify", false, "Replay the run and fail on any divergence")

	// Output
	outputJSON := flag.Bool("json", false, "Output report as JSON")
	tradesCSV := flag.String("trades-csv", "", "Write trade legs to this CSV path")
	diagnosticsCSV := flag.String("diagnostics-csv", "", "Write per-row diagnostics to this CSV path")
	equityCSV := flag.String("equity-csv", "", "Write portfolio value and cash per row to this CSV path")
	debug := flag.Bool("debug", false, "Development logging at debug level")

	flag.Parse()

	logger, err := observability.NewLogger(*debug, "backtest")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *tickerY != "" {
		cfg.Pair.Y = *tickerY
	}
	if *tickerX != "" {
		cfg.Pair.X = *tickerX
	}
	if *theta > 0 {
		cfg.Backtest.Theta = *theta
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	metrics := observability.NewMetrics("pairs")

	store, err := backend.Open(ctx, cfg.Storage, *migrate, metrics, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer store.Close()

	loader := ingestion.NewLoader(ingestion.LoaderOptions{Store: store, Metrics: metrics, Logger: logger})
	for ticker, path := range map[string]string{cfg.Pair.Y: *yCSV, cfg.Pair.X: *xCSV} {
		if path == "" {
			continue
		}
		if _, err := loader.LoadFile(ctx, ticker, path); err != nil {
			logger.Fatal("load csv", zap.String("ticker", ticker), zap.Error(err))
		}
	}

	req := backtest.RunRequest{
		TickerY:       cfg.Pair.Y,
		TickerX:       cfg.Pair.X,
		From:          cfg.Data.From,
		To:            cfg.Data.To,
		Config:        cfg.Backtest,
		TrainFraction: cfg.Data.TrainFraction,
		Overlay:       cfg.Data.Overlay,
	}
	if *eig1 != 0 || *eig2 != 0 {
		req.InitialVector = &domain.EigenVector{Eig1: *eig1, Eig2: *eig2}
	}

	runner := backtest.NewRunner(store, cointegration.NewJohansen(),
		backtest.WithLogger(logger),
		backtest.WithMetrics(metrics),
	)

	logger.Info("running backtest",
		zap.String("y", cfg.Pair.Y),
		zap.String("x", cfg.Pair.X),
		zap.String("backend", store.Backend),
		zap.Float64("theta", cfg.Backtest.Theta),
	)
	out, err := runner.Run(ctx, req)
	if err != nil {
		logger.Fatal("backtest failed", zap.Error(err))
	}

	if *verify {
		vr, err := verification.NewReplayVerifier(runner).Verify(ctx, req, out)
		if err != nil {
			logger.Fatal("verify run", zap.Error(err))
		}
		if !vr.OK() {
			for _, leg := range vr.Legs {
				if !leg.Match {
					logger.Error("leg diverged", zap.String("position_id", leg.PositionID), zap.Any("divergences", leg.Divergences))
				}
			}
			logger.Fatal("replay diverged",
				zap.Int("divergent_legs", vr.DivergentLegs),
				zap.Any("run", vr.RunDivergence),
			)
		}
		logger.Info("replay verified", zap.Int("legs", vr.MatchedLegs))
	}

	report := reporting.NewReport(out.Result, cfg.Backtest, time.Now())
	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderMarkdown(report))
	}

	writes := []struct {
		path    string
		content func() string
	}{
		{*tradesCSV, func() string { return reporting.RenderTradesCSV(out.Result.Trades) }},
		{*diagnosticsCSV, func() string { return reporting.RenderDiagnosticsCSV(out.Result.Diagnostics) }},
		{*equityCSV, func() string { return reporting.RenderEquityCSV(out.Result.PortfolioValues, out.Result.CashValues) }},
	}
	for _, w := range writes {
		if w.path == "" {
			continue
		}
		if err := os.WriteFile(w.path, []byte(w.content()), 0o644); err != nil {
			logger.Fatal("write output", zap.String("path", w.path), zap.Error(err))
		}
		logger.Info("wrote output", zap.String("path", w.path))
	}

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url, cfg.Metrics.Job); err != nil {
			logger.Warn("push metrics", zap.String("url", url), zap.Error(err))
		}
	}
}
