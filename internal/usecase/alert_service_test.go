package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

type mockAudit struct {
	orders   []*domain.OrderRecord
	failures []*domain.FailureRecord
}

func (m *mockAudit) LogOrder(ctx context.Context, rec *domain.OrderRecord) (int64, error) {
	m.orders = append(m.orders, rec)
	return int64(len(m.orders)), nil
}

func (m *mockAudit) LogFailure(ctx context.Context, rec *domain.FailureRecord) (int64, error) {
	m.failures = append(m.failures, rec)
	return int64(len(m.failures)), nil
}

func (m *mockAudit) ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.OrderRecord, error) {
	return m.orders, nil
}

func (m *mockAudit) ListFailures(ctx context.Context, f domain.FailureFilter) ([]*domain.FailureRecord, error) {
	return m.failures, nil
}

func (m *mockAudit) OrderByRequestID(ctx context.Context, requestID string) (*domain.OrderRecord, error) {
	return nil, nil
}

func (m *mockAudit) Statistics(ctx context.Context) (*domain.AuditStats, error) {
	return &domain.AuditStats{}, nil
}

type mockNotifier struct {
	messages chan string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{messages: make(chan string, 4)}
}

func (m *mockNotifier) Send(text string) { m.messages <- text }

func testAlert() *domain.Alert {
	raw := `{
		"general": {"ticker": "ETH", "exchange": "BINANCE", "interval": "60",
			"time": "2026-08-29T10:00:00Z", "timenow": "2026-08-29T10:00:01Z", "leverage": "10"},
		"symbol_data": {"open": "2500", "close": 2501.5, "high": "2510", "low": "2490", "volume": 1234},
		"currency": {"quote": "USD", "base": "ETH"},
		"order": {"action": "buy", "contracts": "0.1", "price": "2501.5", "id": "Long Entry"},
		"market": {"position": "long", "position_size": "0.1",
			"previous_position": "flat", "previous_position_size": "0"}
	}`
	var a domain.Alert
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		panic(err)
	}
	return &a
}

func newTestAlertService(ex *mockExchange, audit *mockAudit, notifier domain.Notifier) *AlertService {
	orders := NewOrderService(&mockMarket{ctx: testMarketContext()}, ex, 5, 1, zap.NewNop())
	retrier := NewRetrier(zap.NewNop())
	retrier.sleep = func(time.Duration) {}
	return NewAlertService(orders, retrier, audit, notifier, "0xsub", zap.NewNop())
}

func TestHandleAlert_OpenLongEndToEnd(t *testing.T) {
	ex := &mockExchange{outcome: &domain.OrderOutcome{
		Status: domain.StatusFilled, OrderID: 42, AvgPrice: 2502.0, TotalSize: 1.0, Raw: `{"status":"ok"}`,
	}}
	audit := &mockAudit{}
	notifier := newMockNotifier()
	svc := newTestAlertService(ex, audit, notifier)

	res, err := svc.HandleAlert(context.Background(), "req-1", testAlert())
	if err != nil {
		t.Fatalf("HandleAlert failed: %v", err)
	}
	if res.Status != "success" || res.Signal != "OPEN_LONG" || res.OrderID != 42 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(ex.marketOrders) != 1 {
		t.Fatalf("expected 1 market order, got %d", len(ex.marketOrders))
	}
	if ex.marketOrders[0].Side != domain.SideBuy {
		t.Errorf("open long must buy, got %s", ex.marketOrders[0].Side)
	}
	if ex.marketOrders[0].Size != 1.0 {
		t.Errorf("expected size 1.0 (0.1 contracts x 10 leverage), got %v", ex.marketOrders[0].Size)
	}

	if len(audit.orders) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audit.orders))
	}
	rec := audit.orders[0]
	if rec.RequestID != "req-1" || rec.Status != "FILLED" || rec.OrderID != "42" {
		t.Errorf("unexpected audit row: %+v", rec)
	}
	if rec.Price != 2501.5 {
		t.Errorf("expected the alert price 2501.5 in the audit row, got %v", rec.Price)
	}
	if rec.Subaccount != "0xsub" {
		t.Errorf("expected the configured subaccount in the audit row, got %q", rec.Subaccount)
	}

	select {
	case msg := <-notifier.messages:
		if msg == "" {
			t.Error("empty notification")
		}
	case <-time.After(time.Second):
		t.Error("expected a notification")
	}
}

func TestHandleAlert_NoActionShortCircuits(t *testing.T) {
	ex := &mockExchange{}
	audit := &mockAudit{}
	svc := newTestAlertService(ex, audit, nil)

	alert := testAlert()
	alert.Market.Position = "flat"
	alert.Market.PreviousPosition = "flat"
	alert.Order.Action = "sell"

	res, err := svc.HandleAlert(context.Background(), "req-2", alert)
	if err != nil {
		t.Fatalf("NO_ACTION must not be an error: %v", err)
	}
	if res.Status != "no_action" || res.Signal != "NO_ACTION" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(ex.marketOrders)+len(ex.closes) != 0 {
		t.Error("no exchange activity expected")
	}
	if len(audit.orders)+len(audit.failures) != 0 {
		t.Error("no audit rows expected for NO_ACTION")
	}
}

func TestHandleAlert_CloseLongSellsReduceOnly(t *testing.T) {
	ex := &mockExchange{}
	svc := newTestAlertService(ex, &mockAudit{}, nil)

	alert := testAlert()
	alert.Market.PreviousPosition = "long"
	alert.Market.Position = "flat"
	alert.Order.Action = "sell"

	res, err := svc.HandleAlert(context.Background(), "req-3", alert)
	if err != nil {
		t.Fatalf("HandleAlert failed: %v", err)
	}
	if res.Signal != "CLOSE_LONG" {
		t.Errorf("expected CLOSE_LONG, got %s", res.Signal)
	}
	if len(ex.closes) != 1 || ex.closes[0].Position != domain.PositionLong {
		t.Errorf("expected one close of the long position, got %+v", ex.closes)
	}
}

func TestHandleAlert_RetryFailuresAreAudited(t *testing.T) {
	netErr := &domain.NetworkError{Op: "post", Err: context.DeadlineExceeded}
	ex := &mockExchange{orderErrs: []error{netErr, netErr, netErr}}
	audit := &mockAudit{}
	svc := newTestAlertService(ex, audit, nil)

	_, err := svc.HandleAlert(context.Background(), "req-4", testAlert())
	if !domain.IsNetwork(err) {
		t.Fatalf("expected the final NetworkError, got %v", err)
	}
	if len(ex.marketOrders) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(ex.marketOrders))
	}
	if len(audit.failures) != 3 {
		t.Fatalf("expected 3 failure rows, got %d", len(audit.failures))
	}
	for i, f := range audit.failures {
		if f.Attempt != i+1 || f.ErrorType != "NetworkError" || f.RequestID != "req-4" {
			t.Errorf("failure row %d: %+v", i, f)
		}
		if f.RetryCount != i {
			t.Errorf("failure row %d: expected retry count %d, got %d", i, i, f.RetryCount)
		}
	}
	if len(audit.orders) != 1 || audit.orders[0].Status != "FAILED" {
		t.Errorf("expected one FAILED order row, got %+v", audit.orders)
	}
}

func TestHandleAlert_ValidationFailureSingleAttempt(t *testing.T) {
	ex := &mockExchange{orderErrs: []error{domain.NewValidationError("symbol not found")}}
	audit := &mockAudit{}
	svc := newTestAlertService(ex, audit, nil)

	_, err := svc.HandleAlert(context.Background(), "req-5", testAlert())
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ex.marketOrders) != 1 {
		t.Errorf("validation errors must not retry, got %d attempts", len(ex.marketOrders))
	}
	if len(audit.failures) != 1 || audit.failures[0].ErrorType != "ValidationError" {
		t.Errorf("expected one ValidationError failure row, got %+v", audit.failures)
	}
}

func TestHandleAlert_BadLeverage(t *testing.T) {
	ex := &mockExchange{}
	svc := newTestAlertService(ex, &mockAudit{}, nil)

	alert := testAlert()
	alert.General.Leverage = "2.5"

	_, err := svc.HandleAlert(context.Background(), "req-6", alert)
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for fractional leverage, got %v", err)
	}
	if len(ex.marketOrders) != 0 {
		t.Error("no order expected")
	}
}

func TestParseLeverage(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"10", 10, false},
		{" 5 ", 5, false},
		{"3.0", 3, false},
		{"2.5", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
		{"ten", 0, true},
	}
	for _, tc := range cases {
		got, err := parseLeverage(tc.in)
		if tc.wantErr != (err != nil) {
			t.Errorf("parseLeverage(%q): err = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLeverage(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHandleAlert_UnknownPositionsTreatedAsFlat(t *testing.T) {
	ex := &mockExchange{}
	svc := newTestAlertService(ex, &mockAudit{}, nil)

	alert := testAlert()
	alert.Market.PreviousPosition = "???"
	alert.Market.Position = "long"

	res, err := svc.HandleAlert(context.Background(), "req-7", alert)
	if err != nil {
		t.Fatalf("HandleAlert failed: %v", err)
	}
	if res.Signal != "OPEN_LONG" {
		t.Errorf("unknown previous position should classify as flat -> OPEN_LONG, got %s", res.Signal)
	}
}
