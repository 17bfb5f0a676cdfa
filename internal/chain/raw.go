package chain

import (
	"github.com/shopspring/decimal"

	"github.com/fluxrevenue/indexer/internal/model"
)

// rawBlock is the wire shape of /daemon/getblock?hashheight=H.
type rawBlock struct {
	Height        uint64    `json:"height"`
	Hash          string    `json:"hash"`
	Time          int64     `json:"time"`
	Confirmations int64     `json:"confirmations"`
	Tx            []rawTx   `json:"tx"`
}

type rawTx struct {
	TxID string   `json:"txid"`
	Vin  []rawVin `json:"vin"`
	Vout []rawVout `json:"vout"`
}

type rawVin struct {
	Coinbase string `json:"coinbase"`
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Address  string `json:"address"`
}

type rawVout struct {
	Value        decimal.Decimal    `json:"value"`
	N            uint32             `json:"n"`
	ScriptPubKey rawScriptPubKey    `json:"scriptPubKey"`
}

type rawScriptPubKey struct {
	Addresses []string `json:"addresses"`
}

func (b rawBlock) toModel() model.BlockBody {
	body := model.BlockBody{
		Height:        b.Height,
		Hash:          b.Hash,
		Timestamp:     b.Time,
		Confirmations: b.Confirmations,
		Transactions:  make([]model.RawTransaction, 0, len(b.Tx)),
	}
	for _, tx := range b.Tx {
		body.Transactions = append(body.Transactions, tx.toModel())
	}
	return body
}

func (t rawTx) toModel() model.RawTransaction {
	tx := model.RawTransaction{
		TxHash: t.TxID,
		Vin:    make([]model.RawInput, 0, len(t.Vin)),
		Vout:   make([]model.RawOutput, 0, len(t.Vout)),
	}
	for _, in := range t.Vin {
		tx.Vin = append(tx.Vin, model.RawInput{
			Coinbase: in.Coinbase,
			TxID:     in.TxID,
			Vout:     in.Vout,
			Address:  in.Address,
		})
	}
	for _, out := range t.Vout {
		tx.Vout = append(tx.Vout, model.RawOutput{
			Value:     out.Value,
			Addresses: out.ScriptPubKey.Addresses,
		})
	}
	return tx
}

// rawTransaction is the wire shape of
// /daemon/getrawtransaction?txid=T&decrypt=1, used only to resolve one
// output's address during sender resolution.
type rawTransaction struct {
	Vout []rawVout `json:"vout"`
}
