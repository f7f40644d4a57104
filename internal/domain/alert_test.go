package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hypertd/hyperhook/internal/domain"
)

func validAlert() *domain.Alert {
	now := time.Now().UTC()
	return &domain.Alert{
		General: domain.AlertGeneral{
			Ticker:   "eth",
			Exchange: "HYPERLIQUID",
			Interval: "15",
			Time:     now,
			TimeNow:  now,
			Leverage: "5",
		},
		Order: domain.AlertOrder{
			Action:    "buy",
			Contracts: 0.5,
			Price:     2500,
			ID:        "Long Entry",
		},
		Market: domain.AlertMarket{
			Position:         "long",
			PreviousPosition: "flat",
		},
	}
}

func TestAlertValidate(t *testing.T) {
	if err := validAlert().Validate(); err != nil {
		t.Fatalf("valid alert rejected: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*domain.Alert)
	}{
		{"empty ticker", func(a *domain.Alert) { a.General.Ticker = " " }},
		{"empty exchange", func(a *domain.Alert) { a.General.Exchange = "" }},
		{"empty interval", func(a *domain.Alert) { a.General.Interval = "" }},
		{"zero time", func(a *domain.Alert) { a.General.Time = time.Time{} }},
		{"bad action", func(a *domain.Alert) { a.Order.Action = "hold" }},
		{"missing order id", func(a *domain.Alert) { a.Order.ID = "" }},
		{"missing position", func(a *domain.Alert) { a.Market.Position = "" }},
	}

	for _, m := range mutations {
		a := validAlert()
		m.mutate(a)
		err := a.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", m.name)
			continue
		}
		if !domain.IsValidation(err) {
			t.Errorf("%s: error should classify as validation, got %T", m.name, err)
		}
	}
}

func TestAlertSymbol(t *testing.T) {
	a := validAlert()
	if a.Symbol() != "ETH" {
		t.Errorf("Symbol() = %q, want ETH", a.Symbol())
	}
}

func TestAlertDecode_StringAndNumericFields(t *testing.T) {
	// TradingView templates emit numbers either quoted or bare depending on
	// how the alert message is written.
	raw := `{
		"general": {"ticker":"BTC","exchange":"HYPERLIQUID","interval":"60",
			"time":"2026-08-29T10:00:00Z","timenow":"2026-08-29T10:00:01Z","leverage":"10"},
		"symbol_data": {"open":"43000.5","close":43100,"high":"43200","low":42900,"volume":"120.5"},
		"currency": {"quote":"USD","base":"BTC"},
		"order": {"action":"sell","contracts":"0.25","price":"43100.5","id":"Exit"},
		"market": {"position":"flat","position_size":0,"previous_position":"long","previous_position_size":"0.25"}
	}`

	var a domain.Alert
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Order.Contracts.Float64() != 0.25 {
		t.Errorf("contracts = %v, want 0.25", a.Order.Contracts)
	}
	if a.SymbolData.Open.Float64() != 43000.5 {
		t.Errorf("open = %v, want 43000.5", a.SymbolData.Open)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded alert should validate: %v", err)
	}
}
