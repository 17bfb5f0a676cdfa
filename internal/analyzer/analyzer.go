// Package analyzer implements the Block Analyzer: a pure function that
// extracts payments to watched addresses out of a fetched block body.
package analyzer

import (
	"github.com/fluxrevenue/indexer/internal/model"
)

// Analyze walks every transaction in body and emits one payment record
// per watched address found in each output, so an output naming two
// watched addresses yields two records. It is deterministic and side-effect
// free: the same body and watched set always produce the same sequence.
func Analyze(body model.BlockBody, watched map[string]struct{}) []model.Transaction {
	var payments []model.Transaction

	for _, tx := range body.Transactions {
		if txIsCoinbase(tx) {
			continue
		}

		var matches []model.Transaction
		for voutIndex, out := range tx.Vout {
			for _, addr := range out.Addresses {
				if _, ok := watched[addr]; !ok {
					continue
				}
				matches = append(matches, model.Transaction{
					BlockHeight: body.Height,
					TxHash:      tx.TxHash,
					VoutIndex:   uint32(voutIndex),
					Address:     addr,
					Value:       out.Value,
					Timestamp:   body.Timestamp,
				})
			}
		}
		if len(matches) == 0 {
			continue
		}

		sender := senderOf(tx)
		for i := range matches {
			matches[i].Sender = sender
			if sender.Resolved() {
				matches[i].FromAddress = sender.Address
			}
		}
		payments = append(payments, matches...)
	}

	return payments
}

func txIsCoinbase(tx model.RawTransaction) bool {
	return len(tx.Vin) > 0 && tx.Vin[0].IsCoinbase()
}

func senderOf(tx model.RawTransaction) model.SenderRef {
	if len(tx.Vin) == 0 {
		return model.UnknownSender
	}
	first := tx.Vin[0]
	if first.Address != "" {
		return model.Inline(first.Address)
	}
	if first.TxID != "" {
		return model.Unresolved(first.TxID, first.Vout)
	}
	return model.UnknownSender
}
