package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"paper-trader/internal/models"
	"paper-trader/internal/sim"
)

// SQLiteStore implements SnapshotStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed snapshot store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Account aggregate, single row
	CREATE TABLE IF NOT EXISTS account (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		balance REAL NOT NULL,
		margin_used REAL NOT NULL DEFAULT 0,
		available_margin REAL NOT NULL DEFAULT 0,
		risk_level TEXT NOT NULL DEFAULT 'LOW',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Live order book
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		product TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		trigger_price REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		placed_at DATETIME NOT NULL
	);

	-- Audit trail of every order ever placed; survives account resets
	CREATE TABLE IF NOT EXISTS trade_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		product TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		trigger_price REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		placed_at DATETIME NOT NULL
	);

	-- Open positions, one row per symbol
	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		product TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		average_price REAL NOT NULL,
		pnl REAL NOT NULL DEFAULT 0,
		unrealized_pnl REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
	CREATE INDEX IF NOT EXISTS idx_history_symbol ON trade_history(symbol);
	CREATE INDEX IF NOT EXISTS idx_history_placed ON trade_history(placed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load returns the last saved snapshot, or nil when the database is empty.
func (s *SQLiteStore) Load(ctx context.Context) (*sim.Snapshot, error) {
	snap := &sim.Snapshot{}

	row := s.db.QueryRowContext(ctx,
		`SELECT balance, margin_used, available_margin, risk_level FROM account WHERE id = 1`)
	var risk string
	err := row.Scan(&snap.Balance, &snap.MarginUsed, &snap.AvailableMargin, &risk)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	snap.RiskLevel = models.RiskLevel(risk)

	snap.Orders, err = s.queryOrders(ctx, `SELECT id, symbol, side, type, product, quantity,
		price, trigger_price, status, placed_at FROM orders ORDER BY placed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("loading orders: %w", err)
	}

	snap.TradeHistory, err = s.queryOrders(ctx, `SELECT id, symbol, side, type, product, quantity,
		price, trigger_price, status, placed_at FROM trade_history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("loading trade history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, product, quantity, average_price, pnl, unrealized_pnl FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Position
		var product string
		if err := rows.Scan(&p.Symbol, &product, &p.Quantity, &p.AveragePrice, &p.PnL, &p.UnrealizedPnL); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		p.Product = models.ProductType(product)
		snap.Positions = append(snap.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// Save atomically replaces the stored snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *sim.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO account (id, balance, margin_used, available_margin, risk_level, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			balance = excluded.balance,
			margin_used = excluded.margin_used,
			available_margin = excluded.available_margin,
			risk_level = excluded.risk_level,
			updated_at = CURRENT_TIMESTAMP`,
		snap.Balance, snap.MarginUsed, snap.AvailableMargin, string(snap.RiskLevel)); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clearing orders: %w", err)
	}
	for _, o := range snap.Orders {
		if err := insertOrder(ctx, tx, "orders", o); err != nil {
			return fmt.Errorf("saving order %s: %w", o.ID, err)
		}
	}

	// The audit trail is append-heavy and rewritten wholesale; the snapshot
	// is the source of truth.
	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_history`); err != nil {
		return fmt.Errorf("clearing trade history: %w", err)
	}
	for _, o := range snap.TradeHistory {
		if err := insertOrder(ctx, tx, "trade_history", o); err != nil {
			return fmt.Errorf("saving trade history %s: %w", o.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clearing positions: %w", err)
	}
	for _, p := range snap.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (symbol, product, quantity, average_price, pnl, unrealized_pnl)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.Symbol, string(p.Product), p.Quantity, p.AveragePrice, p.PnL, p.UnrealizedPnL); err != nil {
			return fmt.Errorf("saving position %s: %w", p.Symbol, err)
		}
	}

	return tx.Commit()
}

func insertOrder(ctx context.Context, tx *sql.Tx, table string, o models.Order) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, symbol, side, type, product, quantity, price, trigger_price, status, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)
	_, err := tx.ExecContext(ctx, query,
		o.ID, o.Symbol, string(o.Side), string(o.Type), string(o.Product),
		o.Quantity, o.Price, o.TriggerPrice, string(o.Status), o.PlacedAt)
	return err
}

// GetTradeHistory returns persisted trade history entries matching the filter.
func (s *SQLiteStore) GetTradeHistory(ctx context.Context, filter TradeFilter) ([]models.Order, error) {
	query := `SELECT id, symbol, side, type, product, quantity, price, trigger_price, status, placed_at
		FROM trade_history`
	var conditions []string
	var args []interface{}

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "placed_at >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "placed_at <= ?")
		args = append(args, filter.To)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryOrders(ctx, query, args...)
}

func (s *SQLiteStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var side, typ, product, status string
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &typ, &product,
			&o.Quantity, &o.Price, &o.TriggerPrice, &status, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		o.Side = models.OrderSide(side)
		o.Type = models.OrderType(typ)
		o.Product = models.ProductType(product)
		o.Status = models.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements SnapshotStore
var _ SnapshotStore = (*SQLiteStore)(nil)
