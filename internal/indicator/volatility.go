package indicator

import (
	"fmt"
	"math"

	"astock/internal/domain"
)

// BollingerBands holds the three Bollinger band series.
type BollingerBands struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes Bollinger bands over the trailing window: the middle
// band is the SMA of close, the upper and lower bands sit k standard
// deviations above and below it. Undefined before window bars exist.
func Bollinger(bars []domain.Bar, window int, k float64) (BollingerBands, error) {
	if k <= 0 {
		return BollingerBands{}, fmt.Errorf("%w: bollinger k must be positive, got %v", domain.ErrConfig, k)
	}
	middle, err := SMA(bars, window)
	if err != nil {
		return BollingerBands{}, err
	}

	upper := undefined(len(bars))
	lower := undefined(len(bars))
	for i := window - 1; i < len(bars); i++ {
		m := middle[i]
		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := bars[j].Close - m
			sq += d * d
		}
		std := math.Sqrt(sq / float64(window))
		upper[i] = m + k*std
		lower[i] = m - k*std
	}
	return BollingerBands{Upper: upper, Middle: middle, Lower: lower}, nil
}
