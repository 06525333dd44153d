package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"astock/internal/domain"
)

// barsFromCloses builds a flat-candle series with one bar per day.
func barsFromCloses(closes ...float64) []domain.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol: "600519",
			Date:   start.AddDate(0, 0, i),
			Open:   c, High: c, Low: c, Close: c,
			Volume: 100,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5)
	s, err := SMA(bars, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	if s.Defined(0) || s.Defined(1) {
		t.Error("SMA defined before window bars exist")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		got, ok := s.At(i + 2)
		if !ok {
			t.Fatalf("SMA undefined at index %d", i+2)
		}
		if math.Abs(got-w) > 1e-12 {
			t.Errorf("SMA[%d] = %v, want %v", i+2, got, w)
		}
	}
}

func TestSMAInvalidWindow(t *testing.T) {
	bars := barsFromCloses(1, 2, 3)
	if _, err := SMA(bars, 0); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("SMA(window=0) error = %v, want ErrConfig", err)
	}
	if _, err := SMA(bars, -5); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("SMA(window=-5) error = %v, want ErrConfig", err)
	}
}

func TestSMAWindowLongerThanSeries(t *testing.T) {
	bars := barsFromCloses(1, 2, 3)
	s, err := SMA(bars, 10)
	if err != nil {
		t.Fatalf("SMA with oversized window should not error: %v", err)
	}
	for i := range bars {
		if s.Defined(i) {
			t.Errorf("SMA[%d] defined, want all-undefined series", i)
		}
	}
}

func TestPctChange(t *testing.T) {
	bars := barsFromCloses(10, 11, 9.9)
	s, err := PctChange(bars)
	if err != nil {
		t.Fatalf("PctChange: %v", err)
	}
	if s.Defined(0) {
		t.Error("PctChange defined at t=0")
	}
	if got, _ := s.At(1); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("PctChange[1] = %v, want 0.1", got)
	}
	if got, _ := s.At(2); math.Abs(got-(9.9-11)/11) > 1e-12 {
		t.Errorf("PctChange[2] = %v, want %v", got, (9.9-11)/11)
	}
}

func TestPctChangeZeroClose(t *testing.T) {
	bars := barsFromCloses(10, 0, 5)
	if _, err := PctChange(bars); !errors.Is(err, domain.ErrData) {
		t.Errorf("PctChange over zero close: error = %v, want ErrData", err)
	}
}

func TestSMANoLookAhead(t *testing.T) {
	// Values over a prefix must not change when later bars are appended.
	long := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8)
	short := long[:5]

	full, err := SMA(long, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	prefix, err := SMA(short, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	for i := range short {
		if full.Defined(i) != prefix.Defined(i) {
			t.Fatalf("definedness differs at %d", i)
		}
		if full.Defined(i) && full[i] != prefix[i] {
			t.Errorf("SMA[%d] changed when later bars were appended: %v vs %v", i, prefix[i], full[i])
		}
	}
}

func TestBollinger(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5)
	bb, err := Bollinger(bars, 3, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	// Window {1,2,3}: mean 2, population std sqrt(2/3).
	std := math.Sqrt(2.0 / 3.0)
	if got, _ := bb.Middle.At(2); math.Abs(got-2) > 1e-12 {
		t.Errorf("Middle[2] = %v, want 2", got)
	}
	if got, _ := bb.Upper.At(2); math.Abs(got-(2+2*std)) > 1e-12 {
		t.Errorf("Upper[2] = %v, want %v", got, 2+2*std)
	}
	if got, _ := bb.Lower.At(2); math.Abs(got-(2-2*std)) > 1e-12 {
		t.Errorf("Lower[2] = %v, want %v", got, 2-2*std)
	}
	if bb.Upper.Defined(1) {
		t.Error("Upper defined before window bars exist")
	}
}

func TestBollingerInvalidK(t *testing.T) {
	bars := barsFromCloses(1, 2, 3)
	if _, err := Bollinger(bars, 2, 0); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("Bollinger(k=0) error = %v, want ErrConfig", err)
	}
}

func TestMACDDefinedness(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	m, err := MACD(bars, 3, 5, 3)
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}
	if m.MACD.Defined(3) {
		t.Error("MACD line defined before slow EMA seeds")
	}
	if !m.MACD.Defined(4) {
		t.Error("MACD line undefined once slow EMA is seeded")
	}
	// Signal needs 3 defined MACD values: indices 4,5,6.
	if m.Signal.Defined(5) {
		t.Error("signal line defined too early")
	}
	if !m.Signal.Defined(6) || !m.Hist.Defined(6) {
		t.Error("signal/hist undefined once signal EMA is seeded")
	}
	// On a linear ramp the fast EMA tracks above the slow EMA.
	if v, _ := m.MACD.At(10); v <= 0 {
		t.Errorf("MACD[10] = %v, want > 0 on rising closes", v)
	}
}

func TestMACDInvalidPeriods(t *testing.T) {
	bars := barsFromCloses(1, 2, 3)
	if _, err := MACD(bars, 26, 12, 9); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("MACD(fast>=slow) error = %v, want ErrConfig", err)
	}
	if _, err := MACD(bars, 0, 12, 9); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("MACD(fast=0) error = %v, want ErrConfig", err)
	}
}

func TestKDJ(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	kdj, err := KDJ(bars, 9, 3)
	if err != nil {
		t.Fatalf("KDJ: %v", err)
	}
	if kdj.K.Defined(7) {
		t.Error("K defined before window bars exist")
	}
	// Close pinned at the window high: RSV = 100, K moves up from the 50 seed.
	k8, ok := kdj.K.At(8)
	if !ok {
		t.Fatal("K undefined at index 8")
	}
	if k8 <= 50 || k8 > 100 {
		t.Errorf("K[8] = %v, want in (50, 100]", k8)
	}
	j8, _ := kdj.J.At(8)
	d8, _ := kdj.D.At(8)
	if math.Abs(j8-(3*k8-2*d8)) > 1e-12 {
		t.Errorf("J[8] = %v, want 3K-2D = %v", j8, 3*k8-2*d8)
	}
}

func TestSetValue(t *testing.T) {
	s := NewSet()
	s.Add("sma5", Series{math.NaN(), 2, 3})
	if _, ok := s.Value("sma5", 0); ok {
		t.Error("Value reported a NaN position as defined")
	}
	if v, ok := s.Value("sma5", 1); !ok || v != 2 {
		t.Errorf("Value(sma5, 1) = %v, %v; want 2, true", v, ok)
	}
	if _, ok := s.Value("missing", 1); ok {
		t.Error("Value reported a missing series as defined")
	}
}
