// Package builtins provides the built-in trading rules that ship with
// astock.
package builtins

import (
	"fmt"

	"astock/internal/domain"
	"astock/internal/indicator"
	"astock/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Rule = (*MACross)(nil)

// MACross is a simple moving average crossover rule: buy when the
// short-period SMA crosses above the long-period SMA, sell when it crosses
// below. Exact equality on either bar is a tie and yields Hold.
type MACross struct {
	short int
	long  int
}

// NewMACross creates a MACross rule with the given short and long windows.
func NewMACross(short, long int) (*MACross, error) {
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("%w: ma-cross windows must be positive (%d, %d)",
			domain.ErrConfig, short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("%w: ma-cross short window %d must be shorter than long %d",
			domain.ErrConfig, short, long)
	}
	return &MACross{short: short, long: long}, nil
}

// Name returns "ma-cross".
func (r *MACross) Name() string { return "ma-cross" }

// Indicators computes the short and long SMA series.
func (r *MACross) Indicators(bars []domain.Bar) (*indicator.Set, error) {
	set := indicator.NewSet()

	short, err := indicator.SMA(bars, r.short)
	if err != nil {
		return nil, err
	}
	set.Add("sma-short", short)

	long, err := indicator.SMA(bars, r.long)
	if err != nil {
		return nil, err
	}
	set.Add("sma-long", long)

	return set, nil
}

// Evaluate detects a crossover between bar t-1 and bar t.
func (r *MACross) Evaluate(t int, _ []domain.Bar, ind *indicator.Set) domain.SignalType {
	shortPrev, ok1 := ind.Value("sma-short", t-1)
	longPrev, ok2 := ind.Value("sma-long", t-1)
	shortCur, ok3 := ind.Value("sma-short", t)
	longCur, ok4 := ind.Value("sma-long", t)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.SignalHold
	}

	if shortPrev <= longPrev && shortCur > longCur {
		return domain.SignalBuy
	}
	if shortPrev >= longPrev && shortCur < longCur {
		return domain.SignalSell
	}
	return domain.SignalHold
}
