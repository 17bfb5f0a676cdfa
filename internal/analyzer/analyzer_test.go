package analyzer

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fluxrevenue/indexer/internal/model"
)

func watchSet(addrs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set
}

func TestAnalyze_SkipsCoinbaseOnlyBlock(t *testing.T) {
	body := model.BlockBody{
		Height: 100,
		Transactions: []model.RawTransaction{
			{
				TxHash: "cb1",
				Vin:    []model.RawInput{{Coinbase: "03a1b2c3"}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(1250), Addresses: []string{"t1WatchedAddr"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet("t1WatchedAddr"))
	if len(payments) != 0 {
		t.Fatalf("expected zero payments for coinbase-only block, got %d", len(payments))
	}
}

func TestAnalyze_EmptyWatchSetEmitsNothing(t *testing.T) {
	body := model.BlockBody{
		Height: 100,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx1",
				Vin:    []model.RawInput{{Address: "senderAddr"}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(500), Addresses: []string{"someAddr"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet())
	if len(payments) != 0 {
		t.Fatalf("expected zero payments with empty watch set, got %d", len(payments))
	}
}

func TestAnalyze_InlineSenderResolvedImmediately(t *testing.T) {
	body := model.BlockBody{
		Height:    200,
		Hash:      "hash200",
		Timestamp: 1700000000,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx-inline",
				Vin:    []model.RawInput{{Address: "tSender1"}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(100), Addresses: []string{"tWatched1"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet("tWatched1"))
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	p := payments[0]
	if !p.Sender.Resolved() || p.FromAddress != "tSender1" {
		t.Fatalf("expected resolved inline sender tSender1, got %+v", p.Sender)
	}
	if p.BlockHeight != 200 || p.TxHash != "tx-inline" || p.Address != "tWatched1" {
		t.Fatalf("unexpected payment fields: %+v", p)
	}
}

func TestAnalyze_UnresolvedSenderCarriesPreviousOutput(t *testing.T) {
	body := model.BlockBody{
		Height: 300,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx-unresolved",
				Vin:    []model.RawInput{{TxID: "prevtx", Vout: 2}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(42), Addresses: []string{"tWatched2"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet("tWatched2"))
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	p := payments[0]
	if p.Sender.Kind != model.SenderUnresolved || p.Sender.TxID != "prevtx" || p.Sender.Vout != 2 {
		t.Fatalf("expected unresolved sender ref to prevtx:2, got %+v", p.Sender)
	}
	if p.HasSender() {
		t.Fatalf("expected no resolved from_address yet")
	}
}

func TestAnalyze_UnknownSenderWhenInputCarriesNothing(t *testing.T) {
	body := model.BlockBody{
		Height: 400,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx-unknown",
				Vin:    []model.RawInput{{}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(1), Addresses: []string{"tWatched3"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet("tWatched3"))
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	if payments[0].Sender.Kind != model.SenderUnknown {
		t.Fatalf("expected unknown sender, got %+v", payments[0].Sender)
	}
}

func TestAnalyze_MultiOutputMultiAddressEmitsOnePerMatch(t *testing.T) {
	body := model.BlockBody{
		Height: 500,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx-multi",
				Vin:    []model.RawInput{{Address: "tSender"}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(10), Addresses: []string{"tWatchedA", "tWatchedB"}},
					{Value: decimal.NewFromInt(20), Addresses: []string{"tUnwatched"}},
					{Value: decimal.NewFromInt(30), Addresses: []string{"tWatchedA"}},
				},
			},
		},
	}
	payments := Analyze(body, watchSet("tWatchedA", "tWatchedB"))
	if len(payments) != 3 {
		t.Fatalf("expected 3 payments, got %d", len(payments))
	}
	for _, p := range payments {
		if p.FromAddress != "tSender" {
			t.Fatalf("expected every payment to inherit sender tSender, got %+v", p)
		}
	}
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	body := model.BlockBody{
		Height: 600,
		Transactions: []model.RawTransaction{
			{
				TxHash: "tx-det",
				Vin:    []model.RawInput{{Address: "tSender"}},
				Vout: []model.RawOutput{
					{Value: decimal.NewFromInt(7), Addresses: []string{"tWatched"}},
				},
			},
		},
	}
	first := Analyze(body, watchSet("tWatched"))
	second := Analyze(body, watchSet("tWatched"))
	if len(first) != len(second) || len(first) != 1 {
		t.Fatalf("expected identical single-payment results, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Fatalf("expected identical payment records, got %+v and %+v", first[0], second[0])
	}
}
