package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"astock/internal/domain"
)

func curve(values ...float64) []domain.EquityPoint {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.EquityPoint, len(values))
	for i, v := range values {
		points[i] = domain.EquityPoint{Date: start.AddDate(0, 0, i), Cash: v, TotalEquity: v}
	}
	return points
}

func TestSummarizeTotalReturn(t *testing.T) {
	rep, err := Summarize(curve(100, 110, 120), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if math.Abs(rep.TotalReturn-0.2) > 1e-12 {
		t.Errorf("TotalReturn = %v, want 0.2", rep.TotalReturn)
	}
	if rep.InitialCash != 100 || rep.FinalEquity != 120 {
		t.Errorf("InitialCash/FinalEquity = %v/%v, want 100/120", rep.InitialCash, rep.FinalEquity)
	}
}

func TestSummarizeMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: drawdown 25%. The later recovery to 130 and drop
	// to 117 (10% off the new peak) must not override the deeper earlier one.
	rep, err := Summarize(curve(100, 120, 90, 130, 117), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if math.Abs(rep.MaxDrawdown-0.25) > 1e-12 {
		t.Errorf("MaxDrawdown = %v, want 0.25", rep.MaxDrawdown)
	}
}

func TestMaxDrawdownPrefixConsistency(t *testing.T) {
	// Extending the curve can only hold or deepen the max drawdown, and the
	// full-curve value equals the maximum over all prefixes.
	values := []float64{100, 120, 90, 130, 117, 80, 140}
	full := curve(values...)

	prev := 0.0
	maxOverPrefixes := 0.0
	for n := 2; n <= len(values); n++ {
		rep, err := Summarize(full[:n], nil)
		if err != nil {
			t.Fatalf("Summarize(prefix %d): %v", n, err)
		}
		if rep.MaxDrawdown < prev-1e-12 {
			t.Errorf("drawdown decreased from %v to %v when extending to %d points", prev, rep.MaxDrawdown, n)
		}
		prev = rep.MaxDrawdown
		if rep.MaxDrawdown > maxOverPrefixes {
			maxOverPrefixes = rep.MaxDrawdown
		}
	}

	final, err := Summarize(full, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if math.Abs(final.MaxDrawdown-maxOverPrefixes) > 1e-12 {
		t.Errorf("full-curve drawdown %v != max over prefixes %v", final.MaxDrawdown, maxOverPrefixes)
	}
}

func TestSummarizeAnnualized(t *testing.T) {
	// 10% over 21 return intervals compounds to (1.1)^12 - 1 on a 252-day
	// year.
	values := make([]float64, 22)
	for i := range values {
		values[i] = 100
	}
	values[21] = 110

	rep, err := Summarize(curve(values...), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := math.Pow(1.1, 12) - 1
	if math.Abs(rep.AnnualizedReturn-want) > 1e-9 {
		t.Errorf("AnnualizedReturn = %v, want %v", rep.AnnualizedReturn, want)
	}
}

func TestSummarizeTooShort(t *testing.T) {
	if _, err := Summarize(curve(100), nil); !errors.Is(err, domain.ErrData) {
		t.Errorf("Summarize(1 point) error = %v, want ErrData", err)
	}
	if _, err := Summarize(nil, nil); !errors.Is(err, domain.ErrData) {
		t.Errorf("Summarize(empty) error = %v, want ErrData", err)
	}
}

func TestSummarizeWinRate(t *testing.T) {
	d := func(i int) time.Time { return time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC) }
	trades := []domain.Trade{
		{Date: d(0), Side: domain.TradeSideBuy, Price: 10, Quantity: 10},
		{Date: d(1), Side: domain.TradeSideSell, Price: 12, Quantity: 10}, // win
		{Date: d(2), Side: domain.TradeSideBuy, Price: 12, Quantity: 10},
		{Date: d(3), Side: domain.TradeSideSell, Price: 9, Quantity: 10}, // loss
		{Date: d(4), Side: domain.TradeSideBuy, Price: 9, Quantity: 10}, // open, not a round trip
	}
	rep, err := Summarize(curve(100, 120, 120, 90, 90), trades)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rep.RoundTrips != 2 {
		t.Errorf("RoundTrips = %d, want 2", rep.RoundTrips)
	}
	if math.Abs(rep.WinRate-0.5) > 1e-12 {
		t.Errorf("WinRate = %v, want 0.5", rep.WinRate)
	}
	found := false
	for _, a := range rep.Anomalies {
		if a == "position still open at end of series" {
			found = true
		}
	}
	if !found {
		t.Errorf("Anomalies = %v, want open-position note", rep.Anomalies)
	}
}

func TestSummarizeZeroTrades(t *testing.T) {
	rep, err := Summarize(curve(100, 100, 100), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rep.WinRate != 0 || rep.RoundTrips != 0 {
		t.Errorf("WinRate/RoundTrips = %v/%d, want 0/0", rep.WinRate, rep.RoundTrips)
	}
	if len(rep.Anomalies) != 1 || rep.Anomalies[0] != "no trades executed" {
		t.Errorf("Anomalies = %v, want the zero-trade note", rep.Anomalies)
	}
}
