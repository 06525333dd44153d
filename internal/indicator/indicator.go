// Package indicator computes derived series (moving averages, percentage
// change, volatility bands, oscillators) from a bar series. Every series is
// aligned 1:1 with the input bars; positions where a rolling computation has
// not yet accumulated a full window hold NaN. No computation ever reads a
// bar past the current index.
package indicator

import (
	"fmt"
	"math"

	"astock/internal/domain"
)

// Series is an indicator value per bar, aligned with the source bar series.
// Undefined positions are NaN.
type Series []float64

// Defined reports whether the series holds a value at index i.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// At returns the value at index i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}
	return s[i], true
}

// undefined returns an all-NaN series of length n.
func undefined(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func checkWindow(window, n int) (partial bool, err error) {
	if window <= 0 {
		return false, fmt.Errorf("%w: indicator window must be positive, got %d", domain.ErrConfig, window)
	}
	// A window longer than the series yields an all-undefined series rather
	// than an error, so a caller sweeping windows can treat it as "no data".
	return window > n, nil
}

// SMA computes the trailing simple moving average of close over window bars,
// inclusive of the current bar. Undefined before window bars exist.
func SMA(bars []domain.Bar, window int) (Series, error) {
	partial, err := checkWindow(window, len(bars))
	if err != nil {
		return nil, err
	}
	out := undefined(len(bars))
	if partial {
		return out, nil
	}

	var sum float64
	for i, b := range bars {
		sum += b.Close
		if i >= window {
			sum -= bars[i-window].Close
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out, nil
}

// PctChange computes (close[t]-close[t-1])/close[t-1]. Undefined at t=0.
// A zero prior close is a data error, not a crash.
func PctChange(bars []domain.Bar) (Series, error) {
	out := undefined(len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			return nil, fmt.Errorf("%w: zero close at %s, cannot compute percentage change",
				domain.ErrData, bars[i-1].Date.Format("2006-01-02"))
		}
		out[i] = (bars[i].Close - prev) / prev
	}
	return out, nil
}

// ema computes an exponential moving average of values, seeded with the
// simple average of the first window values. Undefined before the seed.
func ema(values Series, window int) Series {
	out := undefined(len(values))
	if window > len(values) {
		return out
	}

	// Find the first run of window consecutive defined values to seed from.
	start := 0
	for start < len(values) && !values.Defined(start) {
		start++
	}
	if start+window > len(values) {
		return out
	}

	var seed float64
	for i := start; i < start+window; i++ {
		seed += values[i]
	}
	seed /= float64(window)
	out[start+window-1] = seed

	alpha := 2.0 / (float64(window) + 1.0)
	prev := seed
	for i := start + window; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// closes extracts the close column as a fully-defined series.
func closes(bars []domain.Bar) Series {
	out := make(Series, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
