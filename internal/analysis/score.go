// Package analysis produces the latest-bar signal reading for a symbol: a
// bull score built from the stock's position against its Bollinger bands,
// the KDJ oscillator, and the MACD lines.
package analysis

import (
	"fmt"

	"astock/internal/domain"
	"astock/internal/indicator"
)

// Verdict classifies the overall score.
type Verdict string

const (
	VerdictStrong Verdict = "strong" // bullish, worth watching
	VerdictWeak   Verdict = "weak"   // bearish, stay out
	VerdictMixed  Verdict = "mixed"  // range-bound, no direction
)

// ScoreReport is the structured signal reading for the latest bar.
type ScoreReport struct {
	Symbol   string   `json:"symbol"`
	Date     string   `json:"date"`
	Close    float64  `json:"close"`
	Score    int      `json:"score"` // -1..4
	MaxScore int      `json:"max_score"`
	Reasons  []string `json:"reasons"`
	Verdict  Verdict  `json:"verdict"`
}

// Config holds the indicator parameters for scoring. Zero values fall back
// to the conventional defaults: Bollinger(20, 2), KDJ(9, 3), MACD(12, 26, 9).
type Config struct {
	BollWindow int
	BollK      float64
	KDJWindow  int
	KDJSmooth  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func (c Config) withDefaults() Config {
	if c.BollWindow == 0 {
		c.BollWindow = 20
	}
	if c.BollK == 0 {
		c.BollK = 2
	}
	if c.KDJWindow == 0 {
		c.KDJWindow = 9
	}
	if c.KDJSmooth == 0 {
		c.KDJSmooth = 3
	}
	if c.MACDFast == 0 {
		c.MACDFast = 12
	}
	if c.MACDSlow == 0 {
		c.MACDSlow = 26
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = 9
	}
	return c
}

// Score reads the latest bar of the series against its indicators. The
// series must be long enough for every indicator to be defined on the final
// bar; otherwise a data error is returned.
func Score(bars []domain.Bar, cfg Config) (*ScoreReport, error) {
	cfg = cfg.withDefaults()
	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", domain.ErrData)
	}

	bb, err := indicator.Bollinger(bars, cfg.BollWindow, cfg.BollK)
	if err != nil {
		return nil, err
	}
	kdj, err := indicator.KDJ(bars, cfg.KDJWindow, cfg.KDJSmooth)
	if err != nil {
		return nil, err
	}
	macd, err := indicator.MACD(bars, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	if err != nil {
		return nil, err
	}

	t := len(bars) - 1
	bbu, ok1 := bb.Upper.At(t)
	bbm, ok2 := bb.Middle.At(t)
	k, ok3 := kdj.K.At(t)
	d, ok4 := kdj.D.At(t)
	j, ok5 := kdj.J.At(t)
	m, ok6 := macd.MACD.At(t)
	sig, ok7 := macd.Signal.At(t)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
		return nil, fmt.Errorf("%w: series too short, indicators undefined on the latest bar (%d bars)",
			domain.ErrData, len(bars))
	}

	last := bars[t]
	rep := &ScoreReport{
		Symbol:   last.Symbol,
		Date:     last.Date.Format("2006-01-02"),
		Close:    last.Close,
		MaxScore: 4,
	}

	if last.Close > bbm {
		rep.Score++
		rep.Reasons = append(rep.Reasons, "close above bollinger middle band")
	}
	if last.Close > bbu {
		rep.Score++
		rep.Reasons = append(rep.Reasons, "close above bollinger upper band, possibly overbought")
	}
	if k > d && k < 80 {
		rep.Score++
		rep.Reasons = append(rep.Reasons, "kdj golden cross, not saturated")
	} else if j > 100 {
		rep.Score--
		rep.Reasons = append(rep.Reasons, "kdj j value above 100, overbought risk")
	}
	if m > sig {
		rep.Score++
		rep.Reasons = append(rep.Reasons, "macd above its signal line")
	}

	switch {
	case rep.Score >= 3:
		rep.Verdict = VerdictStrong
	case rep.Score <= 1:
		rep.Verdict = VerdictWeak
	default:
		rep.Verdict = VerdictMixed
	}
	return rep, nil
}
