package builtins

import (
	"fmt"

	"astock/internal/domain"
	"astock/internal/strategy"
)

// Options holds the tunable parameters for the built-in rules. Zero values
// fall back to the conventional defaults.
type Options struct {
	ShortWindow int     // ma-cross short SMA, default 5
	LongWindow  int     // ma-cross long SMA, default 20
	BollWindow  int     // boll-breakout window, default 20
	BollK       float64 // boll-breakout band width, default 2
}

func (o Options) withDefaults() Options {
	if o.ShortWindow == 0 {
		o.ShortWindow = 5
	}
	if o.LongWindow == 0 {
		o.LongWindow = 20
	}
	if o.BollWindow == 0 {
		o.BollWindow = 20
	}
	if o.BollK == 0 {
		o.BollK = 2
	}
	return o
}

// New builds a rule from the closed set of supported names. An unknown name
// is a configuration error.
func New(name string, opts Options) (strategy.Rule, error) {
	opts = opts.withDefaults()
	switch name {
	case "ma-cross":
		return NewMACross(opts.ShortWindow, opts.LongWindow)
	case "momentum":
		return NewMomentum(), nil
	case "boll-breakout":
		return NewBollBreakout(opts.BollWindow, opts.BollK), nil
	default:
		return nil, fmt.Errorf("%w: unknown rule %q", domain.ErrConfig, name)
	}
}

// NewRegistry returns a Registry pre-populated with the built-in rules at
// their default parameters.
func NewRegistry() (*strategy.Registry, error) {
	reg := strategy.NewRegistry()
	for _, name := range []string{"ma-cross", "momentum", "boll-breakout"} {
		rule, err := New(name, Options{})
		if err != nil {
			return nil, err
		}
		reg.Register(rule)
	}
	return reg, nil
}
