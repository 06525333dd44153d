// Package webapi provides the HTTP REST API over the bar store, the
// backtest engine, the signal scorer, and the watchlist database.
package webapi

import (
	"astock/internal/analysis"
	"astock/internal/backtest"
	"astock/internal/domain"
	"astock/internal/store"
)

// SymbolsResponse lists symbols available in the bar store.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// BarJSON is one daily bar in API responses.
type BarJSON struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Amount   float64 `json:"amount"`
	Turnover float64 `json:"turnover"`
	PctChg   float64 `json:"pctChg"`
}

// BarsResponse holds the bar history for one symbol.
type BarsResponse struct {
	Symbol string    `json:"symbol"`
	Bars   []BarJSON `json:"bars"`
}

// BacktestRequest describes one backtest run.
type BacktestRequest struct {
	Symbol      string  `json:"symbol"`
	Rule        string  `json:"rule"`
	Start       string  `json:"start"` // YYYY-MM-DD
	End         string  `json:"end"`
	InitialCash float64 `json:"initialCash,omitempty"`
	Commission  float64 `json:"commission,omitempty"`
	LotSize     int64   `json:"lotSize,omitempty"`

	ShortWindow int     `json:"shortWindow,omitempty"`
	LongWindow  int     `json:"longWindow,omitempty"`
	BollWindow  int     `json:"bollWindow,omitempty"`
	BollK       float64 `json:"bollK,omitempty"`
}

// TradeJSON is one executed fill in a backtest response.
type TradeJSON struct {
	Date       string  `json:"date"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	Commission float64 `json:"commission"`
	Cash       float64 `json:"cash"`
	Position   int64   `json:"position"`
}

// EquityPointJSON is one equity curve sample.
type EquityPointJSON struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// BacktestResponse is the full result of one backtest run.
type BacktestResponse struct {
	Symbol string            `json:"symbol"`
	Rule   string            `json:"rule"`
	Report *backtest.Report  `json:"report"`
	Trades []TradeJSON       `json:"trades"`
	Equity []EquityPointJSON `json:"equity"`
}

// RunJSON is one persisted backtest run summary.
type RunJSON struct {
	ID          int64   `json:"id"`
	Symbol      string  `json:"symbol"`
	Rule        string  `json:"rule"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	InitialCash float64 `json:"initialCash"`
	FinalEquity float64 `json:"finalEquity"`
	TotalReturn float64 `json:"totalReturn"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	WinRate     float64 `json:"winRate"`
	TradeCount  int     `json:"tradeCount"`
	CreatedAt   string  `json:"createdAt"`
}

// RunsResponse lists persisted backtest runs.
type RunsResponse struct {
	Runs []RunJSON `json:"runs"`
}

// WatchEntryJSON is one watchlist entry.
type WatchEntryJSON struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	AddedAt string `json:"addedAt"`
}

// WatchlistResponse lists watchlist entries.
type WatchlistResponse struct {
	Entries []WatchEntryJSON `json:"entries"`
}

// AddWatchRequest is the body of a watchlist PUT.
type AddWatchRequest struct {
	Name string `json:"name"`
}

// PredictionRequest creates a directional prediction. The initial price is
// taken from the latest stored close for the symbol.
type PredictionRequest struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Direction string `json:"direction"` // UP or DOWN
}

// PredictionJSON is one prediction in API responses.
type PredictionJSON struct {
	ID           int64   `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Direction    string  `json:"direction"`
	InitialPrice float64 `json:"initialPrice"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
}

// PredictionsResponse lists predictions.
type PredictionsResponse struct {
	Predictions []PredictionJSON `json:"predictions"`
}

// CheckResponse reports the outcome of a prediction check pass.
type CheckResponse struct {
	Checked  int              `json:"checked"`
	Resolved []PredictionJSON `json:"resolved"`
}

// AnalysisResponse wraps a signal score report.
type AnalysisResponse struct {
	Report *analysis.ScoreReport `json:"report"`
}

const dateLayout = "2006-01-02"

func convertBar(b domain.Bar) BarJSON {
	return BarJSON{
		Date:     b.Date.Format(dateLayout),
		Open:     b.Open,
		High:     b.High,
		Low:      b.Low,
		Close:    b.Close,
		Volume:   b.Volume,
		Amount:   b.Amount,
		Turnover: b.Turnover,
		PctChg:   b.PctChg,
	}
}

func convertTrade(t domain.Trade) TradeJSON {
	return TradeJSON{
		Date:       t.Date.Format(dateLayout),
		Side:       string(t.Side),
		Price:      t.Price,
		Quantity:   t.Quantity,
		Commission: t.Commission,
		Cash:       t.Cash,
		Position:   t.Position,
	}
}

func convertRun(r store.RunRecord) RunJSON {
	return RunJSON{
		ID:          r.ID,
		Symbol:      r.Symbol,
		Rule:        r.Rule,
		Start:       r.StartDate.Format(dateLayout),
		End:         r.EndDate.Format(dateLayout),
		InitialCash: r.InitialCash,
		FinalEquity: r.FinalEquity,
		TotalReturn: r.TotalReturn,
		MaxDrawdown: r.MaxDrawdown,
		WinRate:     r.WinRate,
		TradeCount:  r.TradeCount,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func convertPrediction(p store.Prediction) PredictionJSON {
	return PredictionJSON{
		ID:           p.ID,
		Symbol:       p.Symbol,
		Name:         p.Name,
		Direction:    p.Direction,
		InitialPrice: p.InitialPrice,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
