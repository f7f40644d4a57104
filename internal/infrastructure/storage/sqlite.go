package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hypertd/hyperhook/internal/domain"
)

// SQLiteStore is the order audit trail. Every webhook that reaches the
// exchange leaves one orders row; every failed attempt leaves a failures row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the audit database. The file
// is chmodded to owner-only since rows carry order ids and account activity.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.Chmod(dbPath, 0o600); err != nil {
			return nil, fmt.Errorf("restrict audit db permissions: %w", err)
		}
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL UNIQUE,
			timestamp DATETIME NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			signal TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			leverage INTEGER NOT NULL DEFAULT 0,
			subaccount TEXT,
			status TEXT NOT NULL,
			order_id TEXT,
			avg_price REAL NOT NULL DEFAULT 0,
			total_size REAL NOT NULL DEFAULT 0,
			response_json TEXT,
			execution_ms REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_timestamp ON orders(timestamp);`,
		`CREATE TABLE IF NOT EXISTS failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_row_id INTEGER,
			request_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			error_type TEXT NOT NULL,
			error_message TEXT NOT NULL,
			attempt INTEGER NOT NULL DEFAULT 1,
			retry_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (order_row_id) REFERENCES orders(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_failures_request_id ON failures(request_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init audit schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LogOrder inserts one audit row and returns its row id. Replaying the same
// request id fails on the unique constraint, which is the idempotency guard.
func (s *SQLiteStore) LogOrder(ctx context.Context, rec *domain.OrderRecord) (int64, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (request_id, timestamp, symbol, side, signal, quantity, price, leverage,
			subaccount, status, order_id, avg_price, total_size, response_json, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, ts, rec.Symbol, rec.Side, rec.Signal, rec.Quantity, rec.Price, rec.Leverage,
		rec.Subaccount, rec.Status, rec.OrderID, rec.AvgPrice, rec.TotalSize, rec.ResponseJSON, rec.ExecutionMs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order record: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) LogFailure(ctx context.Context, rec *domain.FailureRecord) (int64, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var orderRowID any
	if rec.OrderRowID != 0 {
		orderRowID = rec.OrderRowID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO failures (order_row_id, request_id, timestamp, error_type, error_message, attempt, retry_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		orderRowID, rec.RequestID, ts, rec.ErrorType, rec.ErrorMessage, rec.Attempt, rec.RetryCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert failure record: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.OrderRecord, error) {
	query := `SELECT id, request_id, timestamp, symbol, side, signal, quantity, price, leverage,
		subaccount, status, order_id, avg_price, total_size, response_json, execution_ms FROM orders`
	var conds []string
	var args []any
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Side != "" {
		conds = append(conds, "side = ?")
		args = append(args, filter.Side)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, normalizeLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListFailures(ctx context.Context, filter domain.FailureFilter) ([]*domain.FailureRecord, error) {
	query := `SELECT id, COALESCE(order_row_id, 0), request_id, timestamp, error_type, error_message, attempt, retry_count
		FROM failures`
	var args []any
	if filter.ErrorType != "" {
		query += " WHERE error_type = ?"
		args = append(args, filter.ErrorType)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, normalizeLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var out []*domain.FailureRecord
	for rows.Next() {
		rec := &domain.FailureRecord{}
		if err := rows.Scan(&rec.ID, &rec.OrderRowID, &rec.RequestID, &rec.Timestamp,
			&rec.ErrorType, &rec.ErrorMessage, &rec.Attempt, &rec.RetryCount); err != nil {
			return nil, fmt.Errorf("scan failure record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) OrderByRequestID(ctx context.Context, requestID string) (*domain.OrderRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, timestamp, symbol, side, signal, quantity, price, leverage,
			subaccount, status, order_id, avg_price, total_size, response_json, execution_ms
		 FROM orders WHERE request_id = ?`, requestID)
	rec, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Statistics aggregates the audit trail for the stats endpoint.
func (s *SQLiteStore) Statistics(ctx context.Context) (*domain.AuditStats, error) {
	stats := &domain.AuditStats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status IN ('FAILED', 'REJECTED') THEN 1 ELSE 0 END), 0)
		 FROM orders`).Scan(&stats.TotalOrders, &stats.FailedOrders)
	if err != nil {
		return nil, fmt.Errorf("order counts: %w", err)
	}
	if stats.TotalOrders > 0 {
		stats.SuccessRate = float64(stats.TotalOrders-stats.FailedOrders) / float64(stats.TotalOrders)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failures`).Scan(&stats.TotalFailures); err != nil {
		return nil, fmt.Errorf("failure count: %w", err)
	}

	symbolRows, err := s.db.QueryContext(ctx,
		`SELECT symbol, COUNT(*) AS n FROM orders GROUP BY symbol ORDER BY n DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("top symbols: %w", err)
	}
	defer symbolRows.Close()
	for symbolRows.Next() {
		var sc domain.SymbolCount
		if err := symbolRows.Scan(&sc.Symbol, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan symbol count: %w", err)
		}
		stats.TopSymbols = append(stats.TopSymbols, sc)
	}
	if err := symbolRows.Err(); err != nil {
		return nil, err
	}

	errorRows, err := s.db.QueryContext(ctx,
		`SELECT error_type, COUNT(*) AS n FROM failures GROUP BY error_type ORDER BY n DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("top errors: %w", err)
	}
	defer errorRows.Close()
	for errorRows.Next() {
		var ec domain.ErrorCount
		if err := errorRows.Scan(&ec.ErrorType, &ec.Count); err != nil {
			return nil, fmt.Errorf("scan error count: %w", err)
		}
		stats.TopErrors = append(stats.TopErrors, ec)
	}
	return stats, errorRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.OrderRecord, error) {
	rec := &domain.OrderRecord{}
	var subaccount, orderID, responseJSON sql.NullString
	err := row.Scan(&rec.ID, &rec.RequestID, &rec.Timestamp, &rec.Symbol, &rec.Side, &rec.Signal,
		&rec.Quantity, &rec.Price, &rec.Leverage, &subaccount, &rec.Status, &orderID,
		&rec.AvgPrice, &rec.TotalSize, &responseJSON, &rec.ExecutionMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan order record: %w", err)
	}
	rec.Subaccount = subaccount.String
	rec.OrderID = orderID.String
	rec.ResponseJSON = responseJSON.String
	return rec, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
