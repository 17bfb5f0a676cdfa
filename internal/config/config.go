// Package config defines the CLI/env-driven configuration surface of the
// indexer binary, which runs both the sync engine and the stats
// collector. The migration runner parses its own, smaller configuration.
package config

import (
	"fmt"
	"time"
)

// OptimizationLevel is a named preset that overrides a cluster of
// individually-tunable fields with one opinionated bundle.
type OptimizationLevel string

const (
	OptimizationConservative OptimizationLevel = "conservative"
	OptimizationAggressive   OptimizationLevel = "aggressive"
	OptimizationMaximum      OptimizationLevel = "maximum"
)

// Config is the indexer's full configuration surface.
type Config struct {
	Addresses []string `long:"address" env:"FLUXREVENUE_ADDRESSES" env-delim:"," description:"watched recipient addresses" required:"true"`

	ChainBaseURL    string `long:"chain-base-url" env:"FLUXREVENUE_CHAIN_BASE_URL" description:"Flux daemon API base URL" required:"true"`
	StatsHostURL    string `long:"stats-host-url" env:"FLUXREVENUE_STATS_HOST_URL" description:"fleet stats host base URL"`
	ClickhouseDSN   string `long:"clickhouse-dsn" env:"FLUXREVENUE_CLICKHOUSE_DSN" description:"ClickHouse DSN" required:"true"`
	MetricsAddr     string `long:"metrics-addr" env:"FLUXREVENUE_METRICS_ADDR" description:"address to serve /metrics on" default:":9090"`

	MaxBlocksPerSync uint64        `long:"max-blocks-per-sync" env:"FLUXREVENUE_MAX_BLOCKS_PER_SYNC" description:"per-cycle block budget" default:"2000"`
	SyncInterval     time.Duration `long:"sync-interval" env:"FLUXREVENUE_SYNC_INTERVAL" description:"inter-cycle sleep" default:"30s"`
	BatchSize        uint64        `long:"batch-size" env:"FLUXREVENUE_BATCH_SIZE" description:"blocks per batch" default:"50"`
	ParallelBatches  int           `long:"parallel-batches" env:"FLUXREVENUE_PARALLEL_BATCHES" description:"unused, reserved for future cross-batch parallelism" default:"1"`

	RetentionDays  uint64 `long:"retention-days" env:"FLUXREVENUE_RETENTION_DAYS" description:"days of history to retain" default:"90"`
	BlocksPerDay   uint64 `long:"blocks-per-day" env:"FLUXREVENUE_BLOCKS_PER_DAY" description:"chain-specific blocks-per-day constant" default:"720"`
	MaxDBSizeGB    uint64 `long:"max-db-size-gb" env:"FLUXREVENUE_MAX_DB_SIZE_GB" description:"database size soft cap; parsed but not read by any component, so no size limit is applied" default:"200"`

	MaxConcurrent     int           `long:"max-concurrent" env:"FLUXREVENUE_MAX_CONCURRENT" description:"max inflight chain API requests" default:"10"`
	ConnectionTimeout time.Duration `long:"connection-timeout" env:"FLUXREVENUE_CONNECTION_TIMEOUT" description:"per-request timeout" default:"10s"`
	RequestDelay      time.Duration `long:"request-delay" env:"FLUXREVENUE_REQUEST_DELAY" description:"minimum delay between requests" default:"0s"`

	AddressCacheSize int           `long:"address-cache-size" env:"FLUXREVENUE_ADDRESS_CACHE_SIZE" default:"10000"`
	BlockCacheSize   int           `long:"block-cache-size" env:"FLUXREVENUE_BLOCK_CACHE_SIZE" default:"1000"`
	NodeStatsTTL     time.Duration `long:"node-stats-ttl" env:"FLUXREVENUE_NODE_STATS_TTL" default:"5m"`
	ArcaneStatsTTL   time.Duration `long:"arcane-stats-ttl" env:"FLUXREVENUE_ARCANE_STATS_TTL" default:"10m"`
	UtilizationTTL   time.Duration `long:"utilization-ttl" env:"FLUXREVENUE_UTILIZATION_TTL" default:"3m"`
	CombinedTTL      time.Duration `long:"combined-stats-ttl" env:"FLUXREVENUE_COMBINED_STATS_TTL" default:"5m"`
	RunningAppsTTL   time.Duration `long:"running-apps-ttl" env:"FLUXREVENUE_RUNNING_APPS_TTL" default:"2m"`

	OptimizationLevel OptimizationLevel `long:"optimization-level" env:"FLUXREVENUE_OPTIMIZATION_LEVEL" description:"conservative, aggressive, or maximum; overrides budget/concurrency defaults" choice:"conservative" choice:"aggressive" choice:"maximum"`
}

// ApplyOptimizationLevel overrides the budget and concurrency fields
// according to the configured preset. It is a no-op if no level was set.
func (c *Config) ApplyOptimizationLevel() error {
	switch c.OptimizationLevel {
	case "":
		return nil
	case OptimizationConservative:
		c.MaxBlocksPerSync = 500
		c.BatchSize = 20
		c.MaxConcurrent = 5
		c.SyncInterval = 60 * time.Second
	case OptimizationAggressive:
		c.MaxBlocksPerSync = 5000
		c.BatchSize = 100
		c.MaxConcurrent = 20
		c.SyncInterval = 15 * time.Second
	case OptimizationMaximum:
		c.MaxBlocksPerSync = 20000
		c.BatchSize = 250
		c.MaxConcurrent = 40
		c.SyncInterval = 5 * time.Second
	default:
		return fmt.Errorf("unknown optimization level %q", c.OptimizationLevel)
	}
	return nil
}

// WatchedAddressSet returns Addresses as a lookup set for the analyzer.
func (c Config) WatchedAddressSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Addresses))
	for _, a := range c.Addresses {
		set[a] = struct{}{}
	}
	return set
}
