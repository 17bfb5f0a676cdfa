package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxrevenue/indexer/internal/model"
	"github.com/fluxrevenue/indexer/pkg/workerpool"
)

// FetchResult pairs a requested height with its fetched body or error.
type FetchResult struct {
	Height uint64
	Body   model.BlockBody
	Err    error
}

// FetchBlocks fetches every height in heights, fanning out up to
// MAX_CONCURRENT outstanding requests at a time. Results are returned in
// the same order as heights, regardless of completion order. A failure
// fetching one height does not affect the others.
func (c *Client) FetchBlocks(ctx context.Context, heights []uint64) []FetchResult {
	results := workerpool.ProcessOrdered(ctx, c.cfg.MaxConcurrent, heights, c.fetchOne)

	out := make([]FetchResult, len(results))
	for i, r := range results {
		out[i] = FetchResult{Height: r.Item, Body: r.Value, Err: r.Err}
	}
	return out
}

func (c *Client) fetchOne(ctx context.Context, height uint64) (body model.BlockBody, err error) {
	if cached, ok := c.blockCache.Get(height); ok {
		c.metrics.ObserveCacheEvent("block", "hit")
		return cached, nil
	}
	c.metrics.ObserveCacheEvent("block", "miss")

	started := time.Now()
	defer func() { c.metrics.Observe("fetch_block", err, started) }()

	var raw rawBlock
	url := fmt.Sprintf("%s/daemon/getblock?hashheight=%d", c.cfg.BaseURL, height)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return model.BlockBody{}, fmt.Errorf("fetch block %d: %w", height, err)
	}

	body = raw.toModel()
	c.blockCache.Set(height, body)
	return body, nil
}
