package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/config"
	"pairs-trading-lab/internal/ingestion"
	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/storage/backend"
)

// Usage: ingest [flags] TICKER=path.csv [TICKER=path.csv ...]
func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML run configuration (storage section)")
	migrate := flag.Bool("migrate", true, "Apply storage migrations before loading")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while loading (empty to disable)")
	debug := flag.Bool("debug", false, "Development logging at debug level")

	flag.Parse()

	logger, err := observability.NewLogger(*debug, "ingest")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	files, err := parseFileArgs(flag.Args())
	if err != nil {
		logger.Fatal("parse arguments", zap.Error(err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Storage.Backend == config.BackendMemory {
		logger.Warn("memory backend selected, bars will not outlive this process")
	}

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

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			logger.Info("starting metrics server", zap.String("addr", *metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	store, err := backend.Open(ctx, cfg.Storage, *migrate, metrics, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer store.Close()

	loader := ingestion.NewLoader(ingestion.LoaderOptions{Store: store, Metrics: metrics, Logger: logger})

	total := 0
	for _, f := range files {
		n, err := loader.LoadFile(ctx, f.ticker, f.path)
		if err != nil {
			logger.Fatal("ingest failed", zap.String("ticker", f.ticker), zap.Error(err))
		}
		total += n
	}
	logger.Info("ingestion complete", zap.Int("files", len(files)), zap.Int("bars", total))

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url, "pairs_ingest"); err != nil {
			logger.Warn("push metrics", zap.String("url", url), zap.Error(err))
		}
	}
}

type fileArg struct {
	ticker string
	path   string
}

// parseFileArgs parses TICKER=path arguments.
func parseFileArgs(args []string) ([]fileArg, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no files given, expected TICKER=path.csv")
	}
	out := make([]fileArg, 0, len(args))
	for _, arg := range args {
		ticker, path, ok := strings.Cut(arg, "=")
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if !ok || ticker == "" || path == "" {
			return nil, fmt.Errorf("invalid argument %q, expected TICKER=path.csv", arg)
		}
		out = append(out, fileArg{ticker: ticker, path: path})
	}
	return out, nil
}
