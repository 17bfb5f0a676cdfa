package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var baseUnitDivisor = decimal.NewFromInt(100_000_000)

type balanceData int64

// Balance returns the address's balance in FLUX, converting the
// upstream's base-unit integer by dividing by 10^8.
func (c *Client) Balance(ctx context.Context, address string) (amount decimal.Decimal, err error) {
	started := time.Now()
	defer func() { c.metrics.Observe("balance", err, started) }()

	var raw balanceData
	url := fmt.Sprintf("%s/explorer/balance/%s", c.cfg.BaseURL, address)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return decimal.Zero, fmt.Errorf("fetch balance for %s: %w", address, err)
	}
	return decimal.NewFromInt(int64(raw)).Div(baseUnitDivisor), nil
}
