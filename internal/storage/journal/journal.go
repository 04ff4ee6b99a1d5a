// Package journal keeps an SQL audit trail of committed settlement receipts.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

var _ settlement.Listener = (*Journal)(nil)

// Journal writes one row per receipt. It is safe for concurrent use.
type Journal struct {
	mu      sync.RWMutex
	db      *sqlx.DB
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger) (*Journal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError("open", "invalid configuration", err)
	}
	if !cfg.Enabled() {
		return nil, newError("open", "journal is disabled", ErrInvalidDriver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, newError("open", "failed to open database connection", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, newError("open", "failed to ping database", err)
	}

	j, err := New(ctx, db, cfg.DefaultTimeout, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an already connected database and creates the schema.
func New(ctx context.Context, db *sqlx.DB, timeout time.Duration, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Journal{
		db:      db,
		timeout: timeout,
		logger:  logger.With(zap.String("module", "journal")),
	}
	if err := j.initSchema(ctx); err != nil {
		return nil, newError("open", "failed to initialize schema", err)
	}
	return j, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id          TEXT PRIMARY KEY,
			operation   TEXT NOT NULL,
			caller      TEXT NOT NULL,
			asset_id    BIGINT NOT NULL DEFAULT 0,
			offers      TEXT NOT NULL,
			transfers   TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			entries     INTEGER NOT NULL DEFAULT 0,
			created_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_asset ON receipts(asset_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_operation ON receipts(operation)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type receiptRow struct {
	ID        string `db:"id"`
	Operation string `db:"operation"`
	Caller    string `db:"caller"`
	Asset     int64  `db:"asset_id"`
	Offers    string `db:"offers"`
	Transfers string `db:"transfers"`
	Detail    string `db:"detail"`
	Entries   int    `db:"entries"`
	CreatedAt int64  `db:"created_at"`
}

func newRow(r *settlement.Receipt) (*receiptRow, error) {
	offers, err := json.Marshal(orEmpty(r.Offers))
	if err != nil {
		return nil, err
	}
	transfers, err := json.Marshal(orEmpty(r.Transfers))
	if err != nil {
		return nil, err
	}
	return &receiptRow{
		ID:        r.ID,
		Operation: r.Operation,
		Caller:    r.Caller.String(),
		Asset:     int64(r.Asset),
		Offers:    string(offers),
		Transfers: string(transfers),
		Detail:    r.Detail,
		Entries:   r.Entries,
		CreatedAt: r.Timestamp,
	}, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (row *receiptRow) receipt() (*settlement.Receipt, error) {
	caller, err := types.ParseAddress(row.Caller)
	if err != nil {
		return nil, err
	}
	r := &settlement.Receipt{
		ID:        row.ID,
		Operation: row.Operation,
		Caller:    caller,
		Asset:     types.AssetID(row.Asset),
		Detail:    row.Detail,
		Entries:   row.Entries,
		Timestamp: row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Offers), &r.Offers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Transfers), &r.Transfers); err != nil {
		return nil, err
	}
	if len(r.Offers) == 0 {
		r.Offers = nil
	}
	if len(r.Transfers) == 0 {
		r.Transfers = nil
	}
	return r, nil
}

const insertReceipt = `INSERT INTO receipts
	(id, operation, caller, asset_id, offers, transfers, detail, entries, created_at)
	VALUES (:id, :operation, :caller, :asset_id, :offers, :transfers, :detail, :entries, :created_at)`

// Record stores r.
func (j *Journal) Record(ctx context.Context, r *settlement.Receipt) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return ErrClosed
	}

	row, err := newRow(r)
	if err != nil {
		return newError("record", "failed to encode receipt", err)
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	if _, err := j.db.NamedExecContext(ctx, insertReceipt, row); err != nil {
		return newError("record", "failed to insert receipt "+r.ID, err)
	}

	j.logger.Debug("receipt recorded",
		zap.String("receipt", r.ID),
		zap.String("operation", r.Operation))
	return nil
}

// OnReceipt records every committed receipt.
func (j *Journal) OnReceipt(ctx context.Context, r *settlement.Receipt) error {
	return j.Record(ctx, r)
}

const selectColumns = `SELECT id, operation, caller, asset_id, offers, transfers, detail, entries, created_at FROM receipts`

// Get returns the receipt with the given id.
func (j *Journal) Get(ctx context.Context, id string) (*settlement.Receipt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrClosed
	}

	var row receiptRow
	if err := j.db.GetContext(ctx, &row, j.db.Rebind(selectColumns+` WHERE id = ?`), id); err != nil {
		return nil, newError("get", "failed to load receipt "+id, err)
	}
	return row.receipt()
}

// Recent returns up to limit receipts, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*settlement.Receipt, error) {
	return j.query(ctx, "recent", selectColumns+` ORDER BY created_at DESC, id LIMIT ?`, limit)
}

// ByAsset returns up to limit receipts that touched asset, newest first.
func (j *Journal) ByAsset(ctx context.Context, asset types.AssetID, limit int) ([]*settlement.Receipt, error) {
	return j.query(ctx, "by_asset", selectColumns+` WHERE asset_id = ? ORDER BY created_at DESC, id LIMIT ?`, int64(asset), limit)
}

// Count returns the number of recorded receipts.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return 0, ErrClosed
	}

	var n int64
	if err := j.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM receipts`); err != nil {
		return 0, newError("count", "failed to count receipts", err)
	}
	return n, nil
}

func (j *Journal) query(ctx context.Context, op, query string, args ...interface{}) ([]*settlement.Receipt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrClosed
	}

	var rows []receiptRow
	if err := j.db.SelectContext(ctx, &rows, j.db.Rebind(query), args...); err != nil {
		return nil, newError(op, "failed to query receipts", err)
	}

	receipts := make([]*settlement.Receipt, 0, len(rows))
	for i := range rows {
		r, err := rows[i].receipt()
		if err != nil {
			return nil, newError(op, "failed to decode receipt "+rows[i].ID, err)
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil && !errors.Is(err, ErrClosed) {
		return newError("close", "failed to close database connection", err)
	}
	return nil
}
