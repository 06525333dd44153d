// Package strategy defines the Rule interface for trading rules, a Registry
// for managing rule implementations, and the signal generator that turns a
// bar series plus indicators into one signal per bar.
package strategy

import (
	"fmt"
	"sort"

	"astock/internal/domain"
	"astock/internal/indicator"
)

// Rule is one trading rule from the closed set of supported strategies.
//
// Evaluate is a pure function of the current bar and of indicator values at
// the current and earlier indices only. It must never read bars or indicator
// positions past t.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Indicators computes the indicator series this rule reads. All series
	// are trailing-window computations aligned with bars.
	Indicators(bars []domain.Bar) (*indicator.Set, error)

	// Evaluate returns the signal for bar index t. It must emit Hold whenever
	// a referenced indicator is undefined at t (or t-1), and Hold on exact
	// ties.
	Evaluate(t int, bars []domain.Bar, ind *indicator.Set) domain.SignalType
}

// Generate runs rule over the bar series and produces exactly one signal per
// bar, strictly in bar order. The series is re-validated here, at the entry
// of the pipeline; downstream stages consume the result without revalidating.
func Generate(bars []domain.Bar, rule Rule) ([]domain.Signal, error) {
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("generating signals for %s: %w", rule.Name(), err)
	}

	ind, err := rule.Indicators(bars)
	if err != nil {
		return nil, fmt.Errorf("computing indicators for %s: %w", rule.Name(), err)
	}

	signals := make([]domain.Signal, len(bars))
	for t := range bars {
		signals[t] = domain.Signal{
			Date: bars[t].Date,
			Type: rule.Evaluate(t, bars, ind),
		}
	}
	return signals, nil
}

// Registry holds a named collection of rules for lookup and enumeration.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty rule Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule to the registry, keyed by its Name().
func (r *Registry) Register(rule Rule) {
	r.rules[rule.Name()] = rule
}

// Get retrieves a rule by name. The second return value indicates whether
// the rule was found.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// List returns a sorted slice of all registered rule names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
