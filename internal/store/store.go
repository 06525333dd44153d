// Package store defines storage interfaces for persisting and retrieving
// bars, watchlist entries, predictions, and backtest run summaries.
package store

import (
	"context"
	"time"

	"astock/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end], in
	// date order.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in storage.
	ListSymbols(ctx context.Context) ([]string, error)
}

// WatchEntry is one stock on the watchlist.
type WatchEntry struct {
	Symbol  string
	Name    string
	AddedAt time.Time
}

// WatchlistStore persists the user's watchlist.
type WatchlistStore interface {
	// AddWatch inserts a symbol into the watchlist. Adding a symbol that is
	// already present is an error.
	AddWatch(ctx context.Context, symbol, name string) error

	// RemoveWatch deletes a symbol from the watchlist.
	RemoveWatch(ctx context.Context, symbol string) error

	// ListWatches returns the watchlist, most recently added first.
	ListWatches(ctx context.Context) ([]WatchEntry, error)
}

// Prediction direction and resolution states.
const (
	PredictionUp   = "UP"
	PredictionDown = "DOWN"

	PredictionPending   = "PENDING"
	PredictionCorrect   = "CORRECT"
	PredictionIncorrect = "INCORRECT"
)

// Prediction is one directional call on a stock, resolved later against the
// price that actually materialized.
type Prediction struct {
	ID           int64
	Symbol       string
	Name         string
	Direction    string // UP or DOWN
	InitialPrice float64
	Status       string // PENDING, CORRECT, INCORRECT
	CreatedAt    time.Time
}

// PredictionStore persists directional predictions.
type PredictionStore interface {
	// AddPrediction records a new pending prediction.
	AddPrediction(ctx context.Context, p *Prediction) error

	// ListPredictions returns predictions with the given status, newest
	// first. An empty status returns everything.
	ListPredictions(ctx context.Context, status string) ([]Prediction, error)

	// ResolvePrediction updates the status of a prediction.
	ResolvePrediction(ctx context.Context, id int64, status string) error
}

// RunRecord is a persisted backtest run summary.
type RunRecord struct {
	ID          int64
	Symbol      string
	Rule        string
	StartDate   time.Time
	EndDate     time.Time
	InitialCash float64
	FinalEquity float64
	TotalReturn float64
	MaxDrawdown float64
	WinRate     float64
	TradeCount  int
	CreatedAt   time.Time
}

// RunStore persists backtest run summaries for later comparison.
type RunStore interface {
	// SaveRun inserts a run summary and fills in its ID.
	SaveRun(ctx context.Context, run *RunRecord) error

	// ListRuns returns the most recent runs for a symbol, up to limit. An
	// empty symbol returns runs for all symbols.
	ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error)
}
