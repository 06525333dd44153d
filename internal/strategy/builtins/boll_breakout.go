package builtins

import (
	"astock/internal/domain"
	"astock/internal/indicator"
	"astock/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Rule = (*BollBreakout)(nil)

// BollBreakout is a Bollinger-band trend-breakout rule: buy when the close
// breaks above the upper band while the MACD line is positive, sell when the
// close falls below the middle band.
type BollBreakout struct {
	window int
	bandK  float64

	macdFast   int
	macdSlow   int
	macdSignal int
}

// NewBollBreakout creates a BollBreakout rule with the conventional
// parameters: Bollinger(window, k) and MACD(12, 26, 9).
func NewBollBreakout(window int, k float64) *BollBreakout {
	return &BollBreakout{
		window:     window,
		bandK:      k,
		macdFast:   12,
		macdSlow:   26,
		macdSignal: 9,
	}
}

// Name returns "boll-breakout".
func (r *BollBreakout) Name() string { return "boll-breakout" }

// Indicators computes the Bollinger bands and the MACD series.
func (r *BollBreakout) Indicators(bars []domain.Bar) (*indicator.Set, error) {
	set := indicator.NewSet()

	bb, err := indicator.Bollinger(bars, r.window, r.bandK)
	if err != nil {
		return nil, err
	}
	set.Add("boll-upper", bb.Upper)
	set.Add("boll-middle", bb.Middle)
	set.Add("boll-lower", bb.Lower)

	macd, err := indicator.MACD(bars, r.macdFast, r.macdSlow, r.macdSignal)
	if err != nil {
		return nil, err
	}
	set.Add("macd", macd.MACD)

	return set, nil
}

// Evaluate applies the breakout conditions to bar t.
func (r *BollBreakout) Evaluate(t int, bars []domain.Bar, ind *indicator.Set) domain.SignalType {
	upper, ok1 := ind.Value("boll-upper", t)
	middle, ok2 := ind.Value("boll-middle", t)
	macd, ok3 := ind.Value("macd", t)
	if !ok1 || !ok2 || !ok3 {
		return domain.SignalHold
	}

	close := bars[t].Close
	if close > upper && macd > 0 {
		return domain.SignalBuy
	}
	if close < middle {
		return domain.SignalSell
	}
	return domain.SignalHold
}
