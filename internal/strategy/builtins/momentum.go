package builtins

import (
	"astock/internal/domain"
	"astock/internal/indicator"
	"astock/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Rule = (*Momentum)(nil)

// Momentum is the simplest directional rule: buy when the close rose versus
// the prior close, sell when it fell, hold on the first bar and on an
// unchanged close.
type Momentum struct{}

// NewMomentum creates a Momentum rule.
func NewMomentum() *Momentum { return &Momentum{} }

// Name returns "momentum".
func (r *Momentum) Name() string { return "momentum" }

// Indicators computes the close-over-close percentage change series.
func (r *Momentum) Indicators(bars []domain.Bar) (*indicator.Set, error) {
	set := indicator.NewSet()
	pct, err := indicator.PctChange(bars)
	if err != nil {
		return nil, err
	}
	set.Add("pct-change", pct)
	return set, nil
}

// Evaluate maps the sign of the day's change to a signal.
func (r *Momentum) Evaluate(t int, _ []domain.Bar, ind *indicator.Set) domain.SignalType {
	chg, ok := ind.Value("pct-change", t)
	if !ok {
		return domain.SignalHold
	}
	switch {
	case chg > 0:
		return domain.SignalBuy
	case chg < 0:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}
