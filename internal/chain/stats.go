package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxrevenue/indexer/internal/model"
	"github.com/fluxrevenue/indexer/pkg/workerpool"
)

type nodeCountData struct {
	Total   int64 `json:"total"`
	Cumulus int64 `json:"cumulus"`
	Nimbus  int64 `json:"nimbus"`
	Stratus int64 `json:"stratus"`
}

type fluxInfoRecord struct {
	Benchmark struct {
		Score float64 `json:"score"`
	} `json:"benchmark"`
	Tier      string `json:"tier"`
	Apps      []struct {
		Name string `json:"name"`
	} `json:"apps"`
	Cores    float64 `json:"cores"`
	RAMBytes int64   `json:"ram_bytes"`
	SSDBytes int64   `json:"ssd_bytes"`
	UsedPct  float64 `json:"used_pct"`
}

// NodeStats returns the fleet's FluxNode tier counts, using a 5-minute
// cache. On a failed refresh with a stale entry present, the stale value
// is returned instead of the error.
func (c *Client) NodeStats(ctx context.Context) (stats model.NodeStats, fromCache bool, err error) {
	if cached, ok := c.nodeStatsCache.Get(struct{}{}); ok {
		return cached, true, nil
	}

	started := time.Now()
	defer func() { c.metrics.Observe("node_stats", err, started) }()

	var raw nodeCountData
	url := c.cfg.BaseURL + "/daemon/getfluxnodecount"
	if fetchErr := c.getJSON(ctx, url, &raw); fetchErr != nil {
		if stale, ok := c.nodeStatsCache.GetStale(struct{}{}); ok {
			c.metrics.ObserveCacheEvent("node_stats", "stale")
			return stale, true, nil
		}
		return model.NodeStats{}, false, fmt.Errorf("fetch node stats: %w", fetchErr)
	}

	stats = model.NodeStats{Total: raw.Total, Cumulus: raw.Cumulus, Nimbus: raw.Nimbus, Stratus: raw.Stratus}
	c.nodeStatsCache.Set(struct{}{}, stats)
	return stats, false, nil
}

// ArcaneStats returns the fleet's average Arcane OS benchmark score,
// using a 10-minute cache.
func (c *Client) ArcaneStats(ctx context.Context) (stats model.ArcaneStats, fromCache bool, err error) {
	if cached, ok := c.arcaneStatsCache.Get(struct{}{}); ok {
		return cached, true, nil
	}

	started := time.Now()
	defer func() { c.metrics.Observe("arcane_stats", err, started) }()

	records, fetchErr := c.fetchFluxInfo(ctx, "benchmark")
	if fetchErr != nil {
		if stale, ok := c.arcaneStatsCache.GetStale(struct{}{}); ok {
			c.metrics.ObserveCacheEvent("arcane_stats", "stale")
			return stale, true, nil
		}
		return model.ArcaneStats{}, false, fmt.Errorf("fetch arcane stats: %w", fetchErr)
	}

	var sum float64
	for _, r := range records {
		sum += r.Benchmark.Score
	}
	stats = model.ArcaneStats{NodesReporting: int64(len(records))}
	if len(records) > 0 {
		stats.AverageBenchmarkScore = sum / float64(len(records))
	}
	c.arcaneStatsCache.Set(struct{}{}, stats)
	return stats, false, nil
}

// Utilization returns fleet-wide resource totals and utilization,
// using a 3-minute cache.
func (c *Client) Utilization(ctx context.Context) (stats model.UtilizationStats, fromCache bool, err error) {
	if cached, ok := c.utilizationCache.Get(struct{}{}); ok {
		return cached, true, nil
	}

	started := time.Now()
	defer func() { c.metrics.Observe("utilization_stats", err, started) }()

	records, fetchErr := c.fetchFluxInfo(ctx, "resources")
	if fetchErr != nil {
		if stale, ok := c.utilizationCache.GetStale(struct{}{}); ok {
			c.metrics.ObserveCacheEvent("utilization_stats", "stale")
			return stale, true, nil
		}
		return model.UtilizationStats{}, false, fmt.Errorf("fetch utilization stats: %w", fetchErr)
	}

	var usedSum float64
	for _, r := range records {
		stats.TotalCPU += r.Cores
		stats.TotalRAMBytes += r.RAMBytes
		stats.TotalSSDBytes += r.SSDBytes
		usedSum += r.UsedPct
	}
	if len(records) > 0 {
		stats.UtilizationPct = usedSum / float64(len(records))
	}
	c.utilizationCache.Set(struct{}{}, stats)
	return stats, false, nil
}

// RunningApps returns the fleet's running-application counts, using a
// 2-minute cache.
func (c *Client) RunningApps(ctx context.Context) (stats model.RunningAppsStats, fromCache bool, err error) {
	if cached, ok := c.runningAppsCache.Get(struct{}{}); ok {
		return cached, true, nil
	}

	started := time.Now()
	defer func() { c.metrics.Observe("running_apps_stats", err, started) }()

	records, fetchErr := c.fetchFluxInfo(ctx, "apps")
	if fetchErr != nil {
		if stale, ok := c.runningAppsCache.GetStale(struct{}{}); ok {
			c.metrics.ObserveCacheEvent("running_apps_stats", "stale")
			return stale, true, nil
		}
		return model.RunningAppsStats{}, false, fmt.Errorf("fetch running apps stats: %w", fetchErr)
	}

	unique := map[string]struct{}{}
	var total int64
	for _, r := range records {
		for _, app := range r.Apps {
			total++
			unique[app.Name] = struct{}{}
		}
	}
	stats = model.RunningAppsStats{TotalApps: total, UniqueApps: int64(len(unique))}
	c.runningAppsCache.Set(struct{}{}, stats)
	return stats, false, nil
}

// statResult is the outcome of one of the four stats accessors, used by
// Combined to classify the pass's DataSource.
type statResult struct {
	fromCache bool
	err       error
}

// Combined calls all four stats accessors concurrently, bounded by the
// same worker pool used for block fan-out, and classifies the pass per
// §4.6: "api" if every call hit the live API, "cache" if at least one
// was served from its accessor's cache (fresh or stale), "partial" if at
// least one failed outright while others succeeded, "failed" if all calls
// failed. successRate is the percentage (0-100) of calls that hit the
// live API; a pass answered from the combined cache makes no live calls.
func (c *Client) Combined(ctx context.Context) (combined model.CombinedStats, source model.DataSource, successRate float64, err error) {
	if cached, ok := c.combinedCache.Get(struct{}{}); ok {
		return cached, model.DataSourceCache, 0, nil
	}

	type call struct {
		name string
		run  func() statResult
	}

	var node model.NodeStats
	var arcane model.ArcaneStats
	var utilization model.UtilizationStats
	var apps model.RunningAppsStats

	calls := []call{
		{"node", func() statResult {
			var r statResult
			node, r.fromCache, r.err = c.NodeStats(ctx)
			return r
		}},
		{"arcane", func() statResult {
			var r statResult
			arcane, r.fromCache, r.err = c.ArcaneStats(ctx)
			return r
		}},
		{"utilization", func() statResult {
			var r statResult
			utilization, r.fromCache, r.err = c.Utilization(ctx)
			return r
		}},
		{"apps", func() statResult {
			var r statResult
			apps, r.fromCache, r.err = c.RunningApps(ctx)
			return r
		}},
	}

	results := workerpool.ProcessOrdered(ctx, len(calls), calls, func(_ context.Context, cl call) (statResult, error) {
		r := cl.run()
		return r, r.err
	})

	var liveHits, failures, cacheHits int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
		case r.Value.fromCache:
			cacheHits++
		default:
			liveHits++
		}
	}

	switch {
	case failures == len(calls):
		source = model.DataSourceFailed
	case failures > 0:
		source = model.DataSourcePartial
	case cacheHits > 0:
		source = model.DataSourceCache
	default:
		source = model.DataSourceAPI
	}
	successRate = float64(liveHits) / float64(len(calls)) * 100

	combined = model.CombinedStats{Node: node, Arcane: arcane, Utilization: utilization, RunningApps: apps}
	if source != model.DataSourceFailed {
		c.combinedCache.Set(struct{}{}, combined)
	}
	return combined, source, successRate, nil
}

func (c *Client) fetchFluxInfo(ctx context.Context, projection string) ([]fluxInfoRecord, error) {
	var records []fluxInfoRecord
	url := fmt.Sprintf("%s/fluxinfo?projection=%s", c.cfg.StatsHostURL, projection)
	if err := c.getJSON(ctx, url, &records); err != nil {
		return nil, err
	}
	return records, nil
}
