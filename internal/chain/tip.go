package chain

import (
	"context"
	"fmt"
	"time"
)

type getInfoData struct {
	Blocks uint64 `json:"blocks"`
}

type getBlockCountData uint64

// Tip returns the current tip height, preferring /daemon/getinfo and
// falling back to /daemon/getblockcount on failure.
func (c *Client) Tip(ctx context.Context) (height uint64, err error) {
	started := time.Now()
	defer func() { c.metrics.Observe("tip", err, started) }()

	var info getInfoData
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/daemon/getinfo", &info); err == nil {
		return info.Blocks, nil
	}

	var count getBlockCountData
	if fallbackErr := c.getJSON(ctx, c.cfg.BaseURL+"/daemon/getblockcount", &count); fallbackErr != nil {
		return 0, fmt.Errorf("getinfo and getblockcount both failed: %w", fallbackErr)
	}
	return uint64(count), nil
}
