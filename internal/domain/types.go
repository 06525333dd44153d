// Package domain defines the core value types shared across the astock
// pipeline: bars, signals, trades, equity points, and positions.
package domain

import (
	"fmt"
	"time"
)

// Market identifies which exchange universe a symbol belongs to.
type Market string

const (
	// MarketCN is the China A-share market (SSE + SZSE).
	MarketCN Market = "cn"
)

// Bar is one trading day's aggregated OHLCV record for a single symbol.
type Bar struct {
	Symbol   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Amount   float64 // trading amount (CNY)
	Turnover float64 // turnover rate, percent
	PctChg   float64 // close-over-close change, percent
}

// SignalType is a discrete trading decision derived from indicators.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

// Signal is one trading decision for one bar date.
type Signal struct {
	Date time.Time
	Type SignalType
}

// TradeSide is the direction of an executed trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade is one executed fill in a backtest. Records are append-only and
// immutable once written to the trade log.
type Trade struct {
	Date       time.Time
	Side       TradeSide
	Price      float64
	Quantity   int64
	Commission float64
	// Account state after the fill.
	Cash     float64
	Position int64
}

// EquityPoint is one day's portfolio valuation. The ordered sequence of
// points forms the equity curve.
type EquityPoint struct {
	Date          time.Time
	Cash          float64
	PositionValue float64
	TotalEquity   float64
}

// Position is the holding state owned by the backtest simulator.
type Position struct {
	Quantity int64
	AvgCost  float64
}

// ValidateBars checks the bar-series invariants: strictly increasing dates,
// positive prices, high/low bracketing open and close, and non-negative
// volume.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("%w: bar %s has non-positive price", ErrData, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("%w: bar %s high/low does not bracket open/close", ErrData, b.Date.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %s has negative volume", ErrData, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return fmt.Errorf("%w: bar dates not strictly increasing at %s", ErrData, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}
