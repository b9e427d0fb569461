package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"PortfoLink/internal/app"
	"PortfoLink/internal/collector"
	"PortfoLink/internal/config"
	"PortfoLink/internal/fund"
	"PortfoLink/internal/logger"
	"PortfoLink/internal/metrics"
	"PortfoLink/internal/store"
)

const version = "v0.4.0"

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portfolink",
		Short:         "Track equity holdings and get risk/return based picks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(
		newAddCmd(),
		newLotsCmd(),
		newSummaryCmd(),
		newRecommendCmd(),
		newFundsCmd(),
		newSimulateCmd(),
		newSyncCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// runtime holds everything a command needs, built from the config file.
type runtime struct {
	cfg   *config.Config
	log   zerolog.Logger
	reg   *metrics.Registry
	store *store.Store
	svc   *app.Service
}

func bootstrap(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	reg := metrics.New()

	st, err := store.Open(cfg.Database.SQLitePath, log)
	if err != nil {
		return nil, err
	}

	var remote collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		remote = &collector.MockFetcher{Generate: true}
	default:
		remote = collector.NewYahooFetcher(collector.YahooOptions{
			ProxyURL:   cfg.Proxy,
			Timeout:    cfg.DataSource.Timeout,
			RatePerSec: cfg.DataSource.RatePerSec,
		}, log)
	}
	fetcher := collector.NewCacheFetcher(st, remote, cfg.Fetch.CacheMaxAge, log)
	log.Debug().Str("source", fetcher.Name()).Msg("data source ready")

	funds := fund.NewManager(cfg.Funds.NAVAllURL, &http.Client{Timeout: 2 * time.Minute}, st, log)
	svc := app.New(st, collector.NewCollector(fetcher, reg, log), funds, reg, app.Settings{
		RiskFreeRate:    cfg.Metrics.RiskFreeRate,
		BenchmarkSymbol: cfg.Metrics.BenchmarkSymbol,
		TopN:            cfg.Recommend.TopN,
		MaxConcurrency:  cfg.Fetch.MaxConcurrency,
		Universe:        cfg.Universe,
	}, log)

	if err := svc.SeedUniverse(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, reg: reg, store: st, svc: svc}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.log.Error().Err(err).Msg("close store")
	}
}
