// Package clickhouse implements the Store (C3): durable, indexed
// persistence of blocks, transactions, and network-stats snapshots.
package clickhouse

import (
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Metrics records latency and status for every repository operation.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Repository is the ClickHouse-backed Store.
type Repository struct {
	conn    clickhouse.Conn
	metrics Metrics
}

// NewRepository opens a ClickHouse connection from dsn.
func NewRepository(dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("clickhouse dsn is required")
	}

	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	return &Repository{conn: conn, metrics: metrics}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.conn.Close()
}
