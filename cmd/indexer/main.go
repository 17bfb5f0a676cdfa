package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/chain"
	"github.com/fluxrevenue/indexer/internal/config"
	fluxmetrics "github.com/fluxrevenue/indexer/internal/metrics"
	"github.com/fluxrevenue/indexer/internal/statscollector"
	"github.com/fluxrevenue/indexer/internal/store/clickhouse"
	"github.com/fluxrevenue/indexer/internal/syncengine"
	"github.com/fluxrevenue/indexer/internal/syncstatus"
)

func main() {
	cfg := config.Config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := cfg.ApplyOptimizationLevel(); err != nil {
		logger.Fatal("invalid optimization level", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("indexer failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, fluxmetrics.NewStore())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("failed to close store", zap.Error(closeErr))
		}
	}()

	chainClient := chain.New(chainConfig(cfg), logger, fluxmetrics.NewChainClient())

	watched := cfg.WatchedAddressSet()
	status := syncstatus.NewPublisher()

	engine := syncengine.New(chainClient, repo, fluxmetrics.NewSyncEngine(), logger, status, watched, syncengine.Config{
		BudgetPerCycle: cfg.MaxBlocksPerSync,
		BatchSize:      cfg.BatchSize,
		RetentionDays:  cfg.RetentionDays,
		BlocksPerDay:   cfg.BlocksPerDay,
		CycleInterval:  cfg.SyncInterval,
	})

	collector := statscollector.New(chainClient, repo, fluxmetrics.NewStatsCollector(), logger, cfg.CombinedTTL)

	errCh := make(chan error, 2)
	go func() { errCh <- engine.Run(ctx) }()
	go func() { errCh <- collector.Run(ctx) }()

	var runErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}
	return runErr
}

func chainConfig(cfg config.Config) chain.Config {
	c := chain.DefaultConfig()
	c.BaseURL = cfg.ChainBaseURL
	c.StatsHostURL = cfg.StatsHostURL
	c.MaxConcurrent = cfg.MaxConcurrent
	c.ConnectionTimeout = cfg.ConnectionTimeout
	c.RequestDelay = cfg.RequestDelay
	c.AddressCacheSize = cfg.AddressCacheSize
	c.BlockCacheSize = cfg.BlockCacheSize
	c.NodeStatsTTL = cfg.NodeStatsTTL
	c.ArcaneStatsTTL = cfg.ArcaneStatsTTL
	c.UtilizationTTL = cfg.UtilizationTTL
	c.CombinedTTL = cfg.CombinedTTL
	c.RunningAppsTTL = cfg.RunningAppsTTL
	return c
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
