package model

import "github.com/shopspring/decimal"

// Transaction is one payment record: a single output of a single chain
// transaction that paid a watched address.
type Transaction struct {
	BlockHeight uint64
	TxHash      string
	VoutIndex   uint32
	Address     string
	FromAddress string // empty until resolved
	Sender      SenderRef
	Value       decimal.Decimal
	Timestamp   int64
}

// HasSender reports whether this record already carries a resolved
// sender address, either because the analyzer found one inline or a
// previous backfill pass resolved it.
func (t Transaction) HasSender() bool {
	return t.FromAddress != ""
}

// Key returns the uniqueness triple enforced by the store.
func (t Transaction) Key() TransactionKey {
	return TransactionKey{TxHash: t.TxHash, VoutIndex: t.VoutIndex, Address: t.Address}
}

// TransactionKey is the store's uniqueness triple for a payment record.
type TransactionKey struct {
	TxHash    string
	VoutIndex uint32
	Address   string
}
