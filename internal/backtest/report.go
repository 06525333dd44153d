package backtest

import (
	"fmt"
	"math"

	"astock/internal/domain"
)

// tradingDaysPerYear is the annualization base for CN equity markets.
const tradingDaysPerYear = 252

// Report is the read-only performance summary of one backtest run.
type Report struct {
	InitialCash float64 `json:"initial_cash"`
	FinalEquity float64 `json:"final_equity"`

	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`

	TradeCount int `json:"trade_count"`
	RoundTrips int `json:"round_trips"`

	// Anomalies records non-fatal oddities of the run: zero trades, an
	// unexecuted trailing signal, a still-open position. The run itself
	// completed.
	Anomalies []string `json:"anomalies,omitempty"`
}

// Summarize computes summary statistics from an equity curve and trade log.
// Neither input is mutated. The curve must span at least two points for
// annualization; a shorter curve is a data error.
func Summarize(equity []domain.EquityPoint, trades []domain.Trade) (*Report, error) {
	if len(equity) < 2 {
		return nil, fmt.Errorf("%w: equity curve spans %d points, need at least 2 to annualize",
			domain.ErrData, len(equity))
	}

	// The first point precedes any possible fill (signals lag one bar), so
	// it equals the starting cash.
	initial := equity[0].TotalEquity
	final := equity[len(equity)-1].TotalEquity
	totalReturn := (final - initial) / initial

	// Compound the total return to a 252-trading-day year over the return
	// intervals the curve spans.
	periods := float64(len(equity) - 1)
	annualized := math.Pow(1+totalReturn, tradingDaysPerYear/periods) - 1

	// Max drawdown with a running peak.
	maxDD := 0.0
	peak := equity[0].TotalEquity
	for _, p := range equity {
		if p.TotalEquity > peak {
			peak = p.TotalEquity
		}
		if peak > 0 {
			if dd := (peak - p.TotalEquity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}

	// Win rate over matched buy→sell round trips.
	roundTrips, wins := 0, 0
	var entry float64
	inPosition := false
	for _, tr := range trades {
		switch tr.Side {
		case domain.TradeSideBuy:
			entry = tr.Price
			inPosition = true
		case domain.TradeSideSell:
			if !inPosition {
				continue
			}
			roundTrips++
			if tr.Price > entry {
				wins++
			}
			inPosition = false
		}
	}
	winRate := 0.0
	if roundTrips > 0 {
		winRate = float64(wins) / float64(roundTrips)
	}

	rep := &Report{
		InitialCash:      initial,
		FinalEquity:      final,
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualized,
		MaxDrawdown:      maxDD,
		WinRate:          winRate,
		TradeCount:       len(trades),
		RoundTrips:       roundTrips,
	}
	if len(trades) == 0 {
		rep.Anomalies = append(rep.Anomalies, "no trades executed")
	}
	if inPosition {
		rep.Anomalies = append(rep.Anomalies, "position still open at end of series")
	}
	return rep, nil
}

// Summary builds the performance report for a simulation result, folding the
// run's own anomalies into it.
func (r *Result) Summary() (*Report, error) {
	rep, err := Summarize(r.Equity, r.Trades)
	if err != nil {
		return nil, err
	}
	if r.Discarded != nil {
		rep.Anomalies = append(rep.Anomalies, fmt.Sprintf(
			"%s signal on final bar %s discarded, no next bar to execute on",
			r.Discarded.Type, r.Discarded.Date.Format("2006-01-02")))
	}
	return rep, nil
}
