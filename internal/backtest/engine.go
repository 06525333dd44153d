// Package backtest simulates a trading rule's signals against a historical
// bar series and computes performance statistics from the resulting equity
// curve and trade log.
//
// The simulator is deterministic: replaying identical inputs reproduces an
// identical trade log and equity curve. Within one run everything is
// processed strictly in bar order; independent runs share no state and may
// execute concurrently (see Sweep).
package backtest

import (
	"fmt"
	"log/slog"

	"astock/internal/domain"
)

// Config holds the account parameters for one backtest run.
type Config struct {
	// InitialCash is the starting cash balance. Must be strictly positive.
	InitialCash float64

	// Commission is a fixed-rate fee subtracted from cash on every trade,
	// e.g. 0.0003 for the usual A-share 0.03%. Default 0.
	Commission float64

	// LotSize rounds entry quantities down to a multiple of this many
	// shares. A-share board lots are 100; default 1.
	LotSize int64
}

func (c Config) withDefaults() Config {
	if c.LotSize == 0 {
		c.LotSize = 1
	}
	return c
}

func (c Config) validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("%w: initial cash must be positive, got %v", domain.ErrConfig, c.InitialCash)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("%w: commission rate %v out of range [0, 1)", domain.ErrConfig, c.Commission)
	}
	if c.LotSize < 1 {
		return fmt.Errorf("%w: lot size must be at least 1, got %d", domain.ErrConfig, c.LotSize)
	}
	return nil
}

// Result is the full output of one simulation run.
type Result struct {
	InitialCash float64
	Trades      []domain.Trade
	Equity      []domain.EquityPoint

	// Discarded is a signal observed on the final bar that had no next bar
	// to execute on. Nil when every actionable signal executed.
	Discarded *domain.Signal

	// FinalPosition is the holding state after the last bar.
	FinalPosition domain.Position
}

// Simulator steps through bars in order and applies signals with a one-bar
// execution lag: a signal observed at the close of bar t fills at the open
// of bar t+1. That lag models non-instant execution and is the load-bearing
// correctness rule of the engine.
type Simulator struct {
	cfg Config
	log *slog.Logger
}

// NewSimulator validates the configuration and creates a Simulator.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		cfg: cfg,
		log: slog.Default().With("component", "backtest"),
	}, nil
}

// Run simulates the signal sequence against the bar series. It expects
// exactly one signal per bar, in bar order, as produced by
// strategy.Generate. Bar data is not revalidated here: the signal generator
// already enforced the series invariants upstream.
func (s *Simulator) Run(bars []domain.Bar, signals []domain.Signal) (*Result, error) {
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("%w: %d signals for %d bars", domain.ErrData, len(signals), len(bars))
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", domain.ErrData)
	}

	cash := s.cfg.InitialCash
	var pos domain.Position
	var trades []domain.Trade
	equity := make([]domain.EquityPoint, 0, len(bars))

	// The signal awaiting execution at the next open, if any.
	var pending *domain.Signal

	for t, bar := range bars {
		// 1. Fill yesterday's signal at today's open. The state checks make
		// repeated signals idempotent even if the observation-time filter
		// let one through.
		if pending != nil {
			switch pending.Type {
			case domain.SignalBuy:
				if pos.Quantity == 0 {
					if trade, ok := s.buy(bar, &cash, &pos); ok {
						trades = append(trades, trade)
					}
				}
			case domain.SignalSell:
				if pos.Quantity > 0 {
					trades = append(trades, s.sell(bar, &cash, &pos))
				}
			}
			pending = nil
		}

		// 2. Mark the portfolio to the day's close.
		posValue := float64(pos.Quantity) * bar.Close
		equity = append(equity, domain.EquityPoint{
			Date:          bar.Date,
			Cash:          cash,
			PositionValue: posValue,
			TotalEquity:   cash + posValue,
		})

		// 3. Observe today's signal. Signals that would not change state are
		// dropped here, so a Buy while already Long is a no-op.
		sig := signals[t]
		switch {
		case sig.Type == domain.SignalBuy && pos.Quantity == 0:
			pending = &domain.Signal{Date: sig.Date, Type: sig.Type}
		case sig.Type == domain.SignalSell && pos.Quantity > 0:
			pending = &domain.Signal{Date: sig.Date, Type: sig.Type}
		}
	}

	res := &Result{
		InitialCash:   s.cfg.InitialCash,
		Trades:        trades,
		Equity:        equity,
		FinalPosition: pos,
	}

	// A signal on the final bar has no next open to fill at. It is recorded,
	// not silently dropped.
	if pending != nil {
		res.Discarded = pending
		s.log.Warn("discarding unexecutable trailing signal",
			"date", pending.Date.Format("2006-01-02"), "signal", string(pending.Type))
	}
	return res, nil
}

// buy deploys all available cash at the bar's open price, net of commission,
// rounded down to the lot size. Returns false when cash buys less than one
// lot.
func (s *Simulator) buy(bar domain.Bar, cash *float64, pos *domain.Position) (domain.Trade, bool) {
	price := bar.Open
	qty := int64(*cash / (price * (1 + s.cfg.Commission)))
	qty -= qty % s.cfg.LotSize
	if qty <= 0 {
		s.log.Debug("buy skipped, cash below one lot",
			"date", bar.Date.Format("2006-01-02"), "cash", *cash, "price", price)
		return domain.Trade{}, false
	}

	cost := float64(qty) * price
	fee := cost * s.cfg.Commission
	*cash -= cost + fee
	pos.Quantity = qty
	pos.AvgCost = price

	return domain.Trade{
		Date:       bar.Date,
		Side:       domain.TradeSideBuy,
		Price:      price,
		Quantity:   qty,
		Commission: fee,
		Cash:       *cash,
		Position:   pos.Quantity,
	}, true
}

// sell liquidates the full position at the bar's open price, net of
// commission.
func (s *Simulator) sell(bar domain.Bar, cash *float64, pos *domain.Position) domain.Trade {
	price := bar.Open
	qty := pos.Quantity
	proceeds := float64(qty) * price
	fee := proceeds * s.cfg.Commission
	*cash += proceeds - fee
	pos.Quantity = 0
	pos.AvgCost = 0

	return domain.Trade{
		Date:       bar.Date,
		Side:       domain.TradeSideSell,
		Price:      price,
		Quantity:   qty,
		Commission: fee,
		Cash:       *cash,
		Position:   0,
	}
}
