package backtest

import (
	"context"
	"errors"
	"testing"

	"astock/internal/domain"
	"astock/internal/strategy/builtins"
)

func TestSweepIsolatedResults(t *testing.T) {
	bars := flatBars(10, 11, 9, 12, 8, 14, 13, 15, 11, 16)

	short, err := builtins.NewMACross(2, 3)
	if err != nil {
		t.Fatalf("NewMACross: %v", err)
	}
	long, err := builtins.NewMACross(3, 5)
	if err != nil {
		t.Fatalf("NewMACross: %v", err)
	}

	tasks := []Task{
		{Name: "momentum", Rule: builtins.NewMomentum(), Config: Config{InitialCash: 1000}},
		{Name: "ma-2-3", Rule: short, Config: Config{InitialCash: 1000}},
		{Name: "ma-3-5", Rule: long, Config: Config{InitialCash: 1000}},
	}

	results, err := Sweep(context.Background(), bars, tasks, 2)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(results) != len(tasks) {
		t.Fatalf("got %d results, want %d", len(results), len(tasks))
	}
	for i, res := range results {
		if res.Name != tasks[i].Name {
			t.Errorf("results[%d].Name = %q, want %q (task order preserved)", i, res.Name, tasks[i].Name)
		}
		if res.Err != nil {
			t.Errorf("task %s failed: %v", res.Name, res.Err)
		}
		if res.Report == nil {
			t.Errorf("task %s produced no report", res.Name)
		}
	}

	// Concurrent runs must match a sequential replay exactly.
	again, err := Sweep(context.Background(), bars, tasks, 1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	for i := range results {
		if results[i].Report.TotalReturn != again[i].Report.TotalReturn {
			t.Errorf("task %s: total return differs across worker counts", results[i].Name)
		}
		if results[i].Report.TradeCount != again[i].Report.TradeCount {
			t.Errorf("task %s: trade count differs across worker counts", results[i].Name)
		}
	}
}

func TestSweepFailedTaskDoesNotPoisonOthers(t *testing.T) {
	bars := flatBars(10, 11, 9, 12)

	tasks := []Task{
		{Name: "bad", Rule: builtins.NewMomentum(), Config: Config{InitialCash: -1}},
		{Name: "good", Rule: builtins.NewMomentum(), Config: Config{InitialCash: 100}},
	}

	results, err := Sweep(context.Background(), bars, tasks, 2)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !errors.Is(results[0].Err, domain.ErrConfig) {
		t.Errorf("bad task error = %v, want ErrConfig", results[0].Err)
	}
	if results[1].Err != nil || results[1].Report == nil {
		t.Errorf("good task affected by bad one: %+v", results[1])
	}
}

func TestSweepInvalidWorkers(t *testing.T) {
	if _, err := Sweep(context.Background(), flatBars(10, 11), nil, 0); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("Sweep(workers=0) error = %v, want ErrConfig", err)
	}
}
