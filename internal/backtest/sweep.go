package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"astock/internal/domain"
	"astock/internal/strategy"
)

// Task is one backtest in a parameter sweep: a rule plus an account
// configuration, run over a shared read-only bar series.
type Task struct {
	Name   string
	Rule   strategy.Rule
	Config Config
}

// TaskResult is the isolated outcome of one sweep task. A failed task
// carries its error; the rest of the sweep is unaffected.
type TaskResult struct {
	Name   string
	Rule   string
	Report *Report
	Err    error
}

// Sweep runs every task against the same bar series across a bounded worker
// pool. Each task owns private simulator state, so runs never share cash or
// position data. Results come back in task order; execution order across
// workers is unspecified.
func Sweep(ctx context.Context, bars []domain.Bar, tasks []Task, workers int) ([]TaskResult, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: sweep workers must be at least 1, got %d", domain.ErrConfig, workers)
	}

	results := make([]TaskResult, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runTask(bars, task)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runTask(bars []domain.Bar, task Task) TaskResult {
	res := TaskResult{Name: task.Name, Rule: task.Rule.Name()}

	signals, err := strategy.Generate(bars, task.Rule)
	if err != nil {
		res.Err = err
		return res
	}

	sim, err := NewSimulator(task.Config)
	if err != nil {
		res.Err = err
		return res
	}

	run, err := sim.Run(bars, signals)
	if err != nil {
		res.Err = err
		return res
	}

	res.Report, res.Err = run.Summary()
	return res
}
