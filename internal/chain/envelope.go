package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the daemon's uniform response wrapper: status == "success"
// on ok, anything else (or its absence) is an error.
type envelope struct {
	Status string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// getJSON issues a GET against url, unwraps the {status, data} envelope,
// and decodes data into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != "success" {
		return fmt.Errorf("upstream reported status %q", env.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
