package domain

import "time"

// TimeInForce for limit orders.
type TimeInForce string

const (
	TifGtc TimeInForce = "Gtc"
	TifIoc TimeInForce = "Ioc"
	TifAlo TimeInForce = "Alo"
)

// OrderStatus is the classified state of a submitted order.
type OrderStatus string

const (
	StatusResting OrderStatus = "resting"
	StatusFilled  OrderStatus = "filled"
	StatusUnknown OrderStatus = "unknown"
)

// OrderRequest is the immutable order intent built from one webhook call.
// It is created, used and discarded within that call.
type OrderRequest struct {
	RequestID  string
	Symbol     string
	Side       Side
	Signal     SignalKind
	Quantity   float64
	Price      float64 // 0 means market-like execution
	ReduceOnly bool
	Leverage   int // 0 means not requested
	Subaccount string
}

// OrderOutcome is the exchange response classified into exactly one of
// resting, filled or error. Error outcomes are surfaced as errors, so a
// returned OrderOutcome is always resting or filled.
type OrderOutcome struct {
	Status    OrderStatus
	OrderID   int64
	AvgPrice  float64 // filled only
	TotalSize float64 // filled only
	Raw       string  // raw exchange response JSON for the audit trail
}

// OrderRecord is one row of the audit trail for an order attempt.
type OrderRecord struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Signal       string    `json:"signal"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	Leverage     int       `json:"leverage"`
	Subaccount   string    `json:"subaccount"`
	Status       string    `json:"status"` // PLACED, FILLED, FAILED, REJECTED
	OrderID      string    `json:"order_id"`
	AvgPrice     float64   `json:"avg_price"`
	TotalSize    float64   `json:"total_size"`
	ResponseJSON string    `json:"response_json"`
	ExecutionMs  float64   `json:"execution_ms"`
}

// FailureRecord is one row of the audit trail for a failed attempt.
type FailureRecord struct {
	ID           int64     `json:"id"`
	OrderRowID   int64     `json:"order_row_id"` // foreign key into orders, 0 when unknown
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	Attempt      int       `json:"attempt"`
	RetryCount   int       `json:"retry_count"`
}

// AuditStats is the summary exposed by the stats endpoint.
type AuditStats struct {
	TotalOrders   int           `json:"total_orders"`
	FailedOrders  int           `json:"failed_orders"`
	SuccessRate   float64       `json:"success_rate"`
	TotalFailures int           `json:"total_failures"`
	TopSymbols    []SymbolCount `json:"top_symbols"`
	TopErrors     []ErrorCount  `json:"top_errors"`
}

type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

type ErrorCount struct {
	ErrorType string `json:"error_type"`
	Count     int    `json:"count"`
}
