package chain

import (
	"context"
	"fmt"
	"time"
)

// UnknownAddress is returned by ResolveSender when the previous output
// cannot be resolved for any reason.
const UnknownAddress = "Unknown"

// ResolveSender resolves the address that funded a previous output,
// consulting a bounded LRU cache keyed by (prevTxHash, vout) before
// issuing a transaction lookup. A failure of any kind resolves to
// UnknownAddress, which is itself cached so repeated failures do not
// repeat the lookup.
func (c *Client) ResolveSender(ctx context.Context, prevTxHash string, vout uint32) (address string, err error) {
	key := addressCacheKey{TxID: prevTxHash, Vout: vout}
	if cached, ok := c.addressCache.Get(key); ok {
		c.metrics.ObserveCacheEvent("address", "hit")
		return cached, nil
	}
	c.metrics.ObserveCacheEvent("address", "miss")

	started := time.Now()
	defer func() { c.metrics.Observe("resolve_sender", err, started) }()

	resolved := c.lookupOutputAddress(ctx, prevTxHash, vout)
	c.addressCache.Set(key, resolved)
	return resolved, nil
}

func (c *Client) lookupOutputAddress(ctx context.Context, txHash string, vout uint32) string {
	var tx rawTransaction
	url := fmt.Sprintf("%s/daemon/getrawtransaction?txid=%s&decrypt=1", c.cfg.BaseURL, txHash)
	if err := c.getJSON(ctx, url, &tx); err != nil {
		return UnknownAddress
	}
	if int(vout) >= len(tx.Vout) {
		return UnknownAddress
	}
	addrs := tx.Vout[vout].ScriptPubKey.Addresses
	if len(addrs) == 0 {
		return UnknownAddress
	}
	return addrs[0]
}
