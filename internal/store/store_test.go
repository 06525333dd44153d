package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"astock/internal/domain"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func sampleBars(symbol string, start time.Time, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	c := 10.0
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c, High: c + 0.5, Low: c - 0.5, Close: c + 0.2,
			Volume: 1000,
			Amount: 10000,
		}
		c += 0.1
	}
	return bars
}

func TestParquetRoundTrip(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := sampleBars("600519", day(2024, 1, 2), 5)
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "600519", day(2024, 1, 1), day(2024, 12, 31))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != len(bars) {
		t.Fatalf("ReadBars returned %d bars, want %d", len(got), len(bars))
	}
	for i := range got {
		if !got[i].Date.Equal(bars[i].Date) || got[i].Close != bars[i].Close {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], bars[i])
		}
	}
}

func TestParquetReadRangeFilter(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	if err := s.WriteBars(ctx, sampleBars("000001", day(2024, 1, 2), 10)); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "000001", day(2024, 1, 4), day(2024, 1, 6))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadBars returned %d bars, want 3", len(got))
	}
	if !got[0].Date.Equal(day(2024, 1, 4)) || !got[2].Date.Equal(day(2024, 1, 6)) {
		t.Errorf("range = [%v, %v], want [2024-01-04, 2024-01-06]", got[0].Date, got[2].Date)
	}
}

func TestParquetWriteMergesAndDedupes(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	first := sampleBars("600519", day(2024, 1, 2), 3)
	if err := s.WriteBars(ctx, first); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	// Overlap the last bar with a revised close plus two new bars.
	second := sampleBars("600519", day(2024, 1, 4), 3)
	second[0].Close = 99
	if err := s.WriteBars(ctx, second); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "600519", day(2024, 1, 1), day(2024, 12, 31))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("after merge got %d bars, want 5", len(got))
	}
	if got[2].Close != 99 {
		t.Errorf("overlapping bar close = %v, want 99 (incoming wins)", got[2].Close)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Errorf("bars out of order at %d: %v then %v", i, got[i-1].Date, got[i].Date)
		}
	}
}

func TestParquetYearBoundary(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	// 10 bars spanning the 2023/2024 boundary land in two files.
	if err := s.WriteBars(ctx, sampleBars("600519", day(2023, 12, 27), 10)); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "600519", day(2023, 1, 1), day(2024, 12, 31))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("cross-year read returned %d bars, want 10", len(got))
	}
}

func TestParquetListSymbols(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	for _, sym := range []string{"600519", "000001", "300750"} {
		if err := s.WriteBars(ctx, sampleBars(sym, day(2024, 1, 2), 2)); err != nil {
			t.Fatalf("WriteBars(%s): %v", sym, err)
		}
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	want := []string{"000001", "300750", "600519"}
	if len(symbols) != len(want) {
		t.Fatalf("ListSymbols = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("ListSymbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "astock.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteWatchlist(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.AddWatch(ctx, "600519", "moutai"); err != nil {
		t.Fatalf("AddWatch: %v", err)
	}
	if err := s.AddWatch(ctx, "000001", "pingan bank"); err != nil {
		t.Fatalf("AddWatch: %v", err)
	}

	// Duplicate symbol violates the primary key.
	if err := s.AddWatch(ctx, "600519", "moutai again"); err == nil {
		t.Error("AddWatch on duplicate symbol: error = nil, want error")
	}

	entries, err := s.ListWatches(ctx)
	if err != nil {
		t.Fatalf("ListWatches: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListWatches returned %d entries, want 2", len(entries))
	}

	if err := s.RemoveWatch(ctx, "600519"); err != nil {
		t.Fatalf("RemoveWatch: %v", err)
	}
	entries, err = s.ListWatches(ctx)
	if err != nil {
		t.Fatalf("ListWatches: %v", err)
	}
	if len(entries) != 1 || entries[0].Symbol != "000001" {
		t.Errorf("after remove: %+v, want single 000001 entry", entries)
	}
}

func TestSQLitePredictions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p := &Prediction{Symbol: "600519", Name: "moutai", Direction: PredictionUp, InitialPrice: 1500}
	if err := s.AddPrediction(ctx, p); err != nil {
		t.Fatalf("AddPrediction: %v", err)
	}
	if p.ID == 0 {
		t.Error("AddPrediction did not fill in ID")
	}
	if p.Status != PredictionPending {
		t.Errorf("new prediction status = %q, want %q", p.Status, PredictionPending)
	}

	if err := s.AddPrediction(ctx, &Prediction{Symbol: "000001", Direction: "SIDEWAYS", InitialPrice: 10}); err == nil {
		t.Error("AddPrediction with bad direction: error = nil, want error")
	}

	pending, err := s.ListPredictions(ctx, PredictionPending)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending predictions = %d, want 1", len(pending))
	}

	if err := s.ResolvePrediction(ctx, p.ID, PredictionCorrect); err != nil {
		t.Fatalf("ResolvePrediction: %v", err)
	}
	pending, err = s.ListPredictions(ctx, PredictionPending)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending predictions after resolve = %d, want 0", len(pending))
	}

	all, err := s.ListPredictions(ctx, "")
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(all) != 1 || all[0].Status != PredictionCorrect {
		t.Errorf("all predictions = %+v, want single CORRECT entry", all)
	}
}

func TestSQLiteRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i, sym := range []string{"600519", "600519", "000001"} {
		run := &RunRecord{
			Symbol:      sym,
			Rule:        "ma_cross",
			StartDate:   day(2024, 1, 2),
			EndDate:     day(2024, 6, 28),
			InitialCash: 100000,
			FinalEquity: 100000 + float64(i)*1000,
			TotalReturn: float64(i) * 0.01,
			WinRate:     0.5,
			TradeCount:  4,
			CreatedAt:   day(2024, 7, 1).Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		if run.ID == 0 {
			t.Error("SaveRun did not fill in ID")
		}
	}

	runs, err := s.ListRuns(ctx, "600519", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(600519) = %d runs, want 2", len(runs))
	}
	if !runs[0].CreatedAt.After(runs[1].CreatedAt) {
		t.Error("ListRuns not ordered newest first")
	}

	all, err := s.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRuns(all) = %d runs, want 3", len(all))
	}

	one, err := s.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(one) != 1 {
		t.Errorf("ListRuns with limit 1 = %d runs, want 1", len(one))
	}
}
