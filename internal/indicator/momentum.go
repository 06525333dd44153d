package indicator

import (
	"fmt"

	"astock/internal/domain"
)

// MACDSeries holds the MACD line, its signal line, and the histogram.
type MACDSeries struct {
	MACD   Series
	Signal Series
	Hist   Series
}

// MACD computes moving average convergence/divergence: the difference of a
// fast and a slow close EMA, a signal EMA of that difference, and their
// histogram. The MACD line is defined once the slow EMA is, the signal and
// histogram once the signal EMA of the MACD line is.
func MACD(bars []domain.Bar, fast, slow, signal int) (MACDSeries, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDSeries{}, fmt.Errorf("%w: macd periods must be positive (%d, %d, %d)",
			domain.ErrConfig, fast, slow, signal)
	}
	if fast >= slow {
		return MACDSeries{}, fmt.Errorf("%w: macd fast period %d must be shorter than slow %d",
			domain.ErrConfig, fast, slow)
	}

	c := closes(bars)
	fastEMA := ema(c, fast)
	slowEMA := ema(c, slow)

	macd := undefined(len(bars))
	for i := range bars {
		if fastEMA.Defined(i) && slowEMA.Defined(i) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	sig := ema(macd, signal)
	hist := undefined(len(bars))
	for i := range bars {
		if macd.Defined(i) && sig.Defined(i) {
			hist[i] = macd[i] - sig[i]
		}
	}
	return MACDSeries{MACD: macd, Signal: sig, Hist: hist}, nil
}

// KDJSeries holds the K, D, and J stochastic oscillator series.
type KDJSeries struct {
	K Series
	D Series
	J Series
}

// KDJ computes the stochastic oscillator used throughout A-share analysis:
// RSV over a trailing window, K and D as exponentially smoothed RSV with the
// conventional 50 seed, and J = 3K - 2D. Undefined before window bars exist.
func KDJ(bars []domain.Bar, window, smooth int) (KDJSeries, error) {
	if smooth <= 0 {
		return KDJSeries{}, fmt.Errorf("%w: kdj smooth must be positive, got %d", domain.ErrConfig, smooth)
	}
	partial, err := checkWindow(window, len(bars))
	if err != nil {
		return KDJSeries{}, err
	}
	k := undefined(len(bars))
	d := undefined(len(bars))
	j := undefined(len(bars))
	if partial {
		return KDJSeries{K: k, D: d, J: j}, nil
	}

	prevK, prevD := 50.0, 50.0
	w := float64(smooth)
	for i := window - 1; i < len(bars); i++ {
		low, high := bars[i].Low, bars[i].High
		for n := i - window + 1; n < i; n++ {
			if bars[n].Low < low {
				low = bars[n].Low
			}
			if bars[n].High > high {
				high = bars[n].High
			}
		}
		rsv := 0.0
		if high > low {
			rsv = (bars[i].Close - low) / (high - low) * 100
		}
		prevK = ((w-1)*prevK + rsv) / w
		prevD = ((w-1)*prevD + prevK) / w
		k[i] = prevK
		d[i] = prevD
		j[i] = 3*prevK - 2*prevD
	}
	return KDJSeries{K: k, D: d, J: j}, nil
}
