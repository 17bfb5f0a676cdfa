// Package chain implements the Chain Client: parallel, rate-limited,
// cached access to the Flux daemon's JSON/HTTP API.
package chain

import (
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/model"
)

// Metrics records latency and status for every outbound call, and
// hit/miss/stale events for every cache.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
	ObserveCacheEvent(cache, event string)
}

// Config is the Chain Client's tunable surface, populated from the
// service configuration.
type Config struct {
	BaseURL           string
	StatsHostURL      string
	MaxConcurrent     int
	ConnectionTimeout time.Duration
	RequestDelay      time.Duration

	AddressCacheSize int
	BlockCacheSize   int

	NodeStatsTTL    time.Duration
	ArcaneStatsTTL  time.Duration
	UtilizationTTL  time.Duration
	CombinedTTL     time.Duration
	RunningAppsTTL  time.Duration
}

// DefaultConfig returns the contract-mandated defaults from §4.1/§6.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:     10,
		ConnectionTimeout: 10 * time.Second,
		RequestDelay:      0,
		AddressCacheSize:  10_000,
		BlockCacheSize:    1_000,
		NodeStatsTTL:      5 * time.Minute,
		ArcaneStatsTTL:    10 * time.Minute,
		UtilizationTTL:    3 * time.Minute,
		CombinedTTL:       5 * time.Minute,
		RunningAppsTTL:    2 * time.Minute,
	}
}

// Client is the Chain Client (C1): it fetches blocks and transactions
// from the upstream daemon API, resolves transaction senders, and
// exposes fleet/utilization statistics through per-endpoint TTL caches.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	metrics Metrics
	limiter ratelimit.Limiter

	addressCache *ttlCache[addressCacheKey, string]
	blockCache   *ttlCache[uint64, model.BlockBody]

	nodeStatsCache    *ttlCache[struct{}, model.NodeStats]
	arcaneStatsCache  *ttlCache[struct{}, model.ArcaneStats]
	utilizationCache  *ttlCache[struct{}, model.UtilizationStats]
	combinedCache     *ttlCache[struct{}, model.CombinedStats]
	runningAppsCache  *ttlCache[struct{}, model.RunningAppsStats]
}

type addressCacheKey struct {
	TxID string
	Vout uint32
}

// New constructs a Chain Client.
func New(cfg Config, logger *zap.Logger, metrics Metrics) *Client {
	rps := cfg.MaxConcurrent
	if rps <= 0 {
		rps = 1
	}
	limiter := ratelimit.New(rps)
	if cfg.RequestDelay > 0 {
		limiter = ratelimit.New(1, ratelimit.Per(cfg.RequestDelay))
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.ConnectionTimeout,
		},
		logger:  logger.Named("chain_client"),
		metrics: metrics,
		limiter: limiter,

		addressCache: newTTLCache[addressCacheKey, string](cfg.AddressCacheSize, 0 /* resolved senders never expire */),
		blockCache:   newTTLCache[uint64, model.BlockBody](cfg.BlockCacheSize, 0 /* block bodies are immutable */),

		nodeStatsCache:   newTTLCache[struct{}, model.NodeStats](1, cfg.NodeStatsTTL),
		arcaneStatsCache: newTTLCache[struct{}, model.ArcaneStats](1, cfg.ArcaneStatsTTL),
		utilizationCache: newTTLCache[struct{}, model.UtilizationStats](1, cfg.UtilizationTTL),
		combinedCache:    newTTLCache[struct{}, model.CombinedStats](1, cfg.CombinedTTL),
		runningAppsCache: newTTLCache[struct{}, model.RunningAppsStats](1, cfg.RunningAppsTTL),
	}
}
