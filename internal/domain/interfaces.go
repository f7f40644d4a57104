package domain

import "context"

// MarketData provides live market snapshots by symbol. Implementations must
// fetch fresh on every call; the staleness risk of caching outweighs the
// latency savings.
type MarketData interface {
	Context(ctx context.Context, symbol string) (*MarketContext, error)
	AllMids(ctx context.Context) (map[string]float64, error)
	AvailableBalance(ctx context.Context, address string) (float64, error)
}

// Exchange places and manages orders on the perpetual futures venue.
type Exchange interface {
	LimitOrder(ctx context.Context, symbol string, side Side, size, price float64, tif TimeInForce, reduceOnly bool) (*OrderOutcome, error)
	MarketOrder(ctx context.Context, symbol string, side Side, size, premiumBps float64, reduceOnly bool) (*OrderOutcome, error)
	ClosePosition(ctx context.Context, symbol string, position PositionState, size, premiumBps float64) (*OrderOutcome, error)
	CancelOrReverse(ctx context.Context, symbol string, oid int64, status OrderStatus, position PositionState, filledSize float64) (*OrderOutcome, error)
	UpdateLeverage(ctx context.Context, symbol string, leverage int) error
}

// AuditRepository persists the order attempt trail.
type AuditRepository interface {
	LogOrder(ctx context.Context, rec *OrderRecord) (int64, error)
	LogFailure(ctx context.Context, rec *FailureRecord) (int64, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*OrderRecord, error)
	ListFailures(ctx context.Context, filter FailureFilter) ([]*FailureRecord, error)
	OrderByRequestID(ctx context.Context, requestID string) (*OrderRecord, error)
	Statistics(ctx context.Context) (*AuditStats, error)
}

// OrderFilter narrows audit queries.
type OrderFilter struct {
	Limit  int
	Offset int
	Symbol string
	Status string
	Side   string
}

// FailureFilter narrows failure queries.
type FailureFilter struct {
	Limit     int
	Offset    int
	ErrorType string
}

// Notifier delivers out-of-band notifications. Send must never block the
// webhook response path; failures are the notifier's problem, not the
// caller's.
type Notifier interface {
	Send(text string)
}
