package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ WatchlistStore = (*SQLiteStore)(nil)
var _ PredictionStore = (*SQLiteStore)(nil)
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements WatchlistStore, PredictionStore, and RunStore
// backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS watchlist (
	symbol   TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	added_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol        TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	direction     TEXT NOT NULL CHECK (direction IN ('UP', 'DOWN')),
	initial_price REAL NOT NULL,
	status        TEXT NOT NULL DEFAULT 'PENDING',
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol       TEXT NOT NULL,
	rule         TEXT NOT NULL,
	start_date   INTEGER NOT NULL,
	end_date     INTEGER NOT NULL,
	initial_cash REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	win_rate     REAL NOT NULL,
	trade_count  INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions (status);
CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs (symbol, created_at DESC);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema if needed, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// WatchlistStore implementation
// ---------------------------------------------------------------------------

// AddWatch inserts a symbol into the watchlist.
func (s *SQLiteStore) AddWatch(ctx context.Context, symbol, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist (symbol, name, added_at) VALUES (?, ?, ?)`,
		symbol, name, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("adding %s to watchlist: %w", symbol, err)
	}
	return nil
}

// RemoveWatch deletes a symbol from the watchlist.
func (s *SQLiteStore) RemoveWatch(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol)
	return err
}

// ListWatches returns the watchlist, most recently added first.
func (s *SQLiteStore) ListWatches(ctx context.Context) ([]WatchEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, name, added_at FROM watchlist ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WatchEntry
	for rows.Next() {
		var e WatchEntry
		var addedAt int64
		if err := rows.Scan(&e.Symbol, &e.Name, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt = time.UnixMilli(addedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ---------------------------------------------------------------------------
// PredictionStore implementation
// ---------------------------------------------------------------------------

// AddPrediction records a new pending prediction and fills in its ID.
func (s *SQLiteStore) AddPrediction(ctx context.Context, p *Prediction) error {
	if p.Direction != PredictionUp && p.Direction != PredictionDown {
		return fmt.Errorf("invalid prediction direction %q", p.Direction)
	}
	if p.Status == "" {
		p.Status = PredictionPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (symbol, name, direction, initial_price, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Symbol, p.Name, p.Direction, p.InitialPrice, p.Status, p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("adding prediction for %s: %w", p.Symbol, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// ListPredictions returns predictions with the given status, newest first.
func (s *SQLiteStore) ListPredictions(ctx context.Context, status string) ([]Prediction, error) {
	query := `SELECT id, symbol, name, direction, initial_price, status, created_at
	          FROM predictions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []Prediction
	for rows.Next() {
		var p Prediction
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Name, &p.Direction, &p.InitialPrice, &p.Status, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = time.UnixMilli(createdAt).UTC()
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// ResolvePrediction updates the status of a prediction.
func (s *SQLiteStore) ResolvePrediction(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE predictions SET status = ? WHERE id = ?`, status, id)
	return err
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun inserts a backtest run summary and fills in its ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (symbol, rule, start_date, end_date, initial_cash, final_equity,
		                   total_return, max_drawdown, win_rate, trade_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Rule, run.StartDate.UnixMilli(), run.EndDate.UnixMilli(),
		run.InitialCash, run.FinalEquity, run.TotalReturn, run.MaxDrawdown,
		run.WinRate, run.TradeCount, run.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving run for %s/%s: %w", run.Symbol, run.Rule, err)
	}
	run.ID, err = res.LastInsertId()
	return err
}

// ListRuns returns the most recent runs, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, symbol, rule, start_date, end_date, initial_cash, final_equity,
	                 total_return, max_drawdown, win_rate, trade_count, created_at
	          FROM runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var startDate, endDate, createdAt int64
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Rule, &startDate, &endDate, &r.InitialCash,
			&r.FinalEquity, &r.TotalReturn, &r.MaxDrawdown, &r.WinRate, &r.TradeCount, &createdAt); err != nil {
			return nil, err
		}
		r.StartDate = time.UnixMilli(startDate).UTC()
		r.EndDate = time.UnixMilli(endDate).UTC()
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
