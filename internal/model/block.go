// Package model defines the domain types shared across the chain client,
// analyzer, store, sync engine, and aggregator.
package model

import "github.com/shopspring/decimal"

// Block is one chain block as retained by the index. It is inserted once
// per observed height and never updated.
type Block struct {
	Height   uint64
	Hash     string
	Timestamp int64
	SyncedAt  int64
}

// BlockBody is the full body returned by the chain client for one height,
// carrying the transactions needed by the analyzer. It is distinct from
// Block: Block is the persisted row, BlockBody is the wire-shaped fetch
// result the analyzer consumes to produce Transactions.
type BlockBody struct {
	Height        uint64
	Hash          string
	Timestamp     int64
	Confirmations int64
	Transactions  []RawTransaction
}

// RawTransaction is one transaction inside a fetched block body, prior to
// analysis.
type RawTransaction struct {
	TxHash string
	Vin    []RawInput
	Vout   []RawOutput
}

// RawInput is one transaction input as returned by the chain API.
type RawInput struct {
	Coinbase string
	TxID     string
	Vout     uint32
	Address  string
}

// IsCoinbase reports whether this input is the chain's coinbase marker.
func (i RawInput) IsCoinbase() bool {
	return i.Coinbase != ""
}

// RawOutput is one transaction output as returned by the chain API.
type RawOutput struct {
	Value     decimal.Decimal
	Addresses []string
}
