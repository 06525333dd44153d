package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"astock/internal/domain"
	"astock/internal/store"
	"astock/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface check
// ---------------------------------------------------------------------------

var _ Gatherer = (*DailyBarGatherer)(nil)

const defaultKlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

// ---------------------------------------------------------------------------
// EastmoneyClient — HTTP client for the eastmoney kline endpoint.
// ---------------------------------------------------------------------------

// EastmoneyClient retrieves forward-adjusted daily kline data for China
// A-shares from the eastmoney quote API.
type EastmoneyClient struct {
	baseURL string
	http    *http.Client
}

// NewEastmoneyClient creates an EastmoneyClient. An empty baseURL selects the
// production endpoint.
func NewEastmoneyClient(baseURL string) *EastmoneyClient {
	if baseURL == "" {
		baseURL = defaultKlineURL
	}
	return &EastmoneyClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// klineResponse is the wire shape of the eastmoney kline endpoint. Each kline
// entry is a comma-separated record:
//
//	date,open,close,high,low,volume,amount,amplitude,pct_chg,change,turnover
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// secID maps a six-digit A-share symbol to the eastmoney security ID.
// Shanghai listings (60x, 68x) are market 1, Shenzhen (00x, 30x) market 0.
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}

// QueryDailyBars retrieves forward-adjusted daily bars for the given symbol
// between start and end, inclusive.
func (c *EastmoneyClient) QueryDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("secid", secID(symbol))
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	q.Set("klt", "101") // daily
	q.Set("fqt", "1")   // forward adjusted
	q.Set("beg", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching klines for %s: status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading kline response for %s: %w", symbol, err)
	}
	return parseKlines(symbol, body)
}

// parseKlines decodes an eastmoney kline response body into bars.
func parseKlines(symbol string, body []byte) ([]domain.Bar, error) {
	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("%w: decoding kline response for %s: %v", domain.ErrData, symbol, err)
	}
	if kr.Data == nil {
		// No data for this symbol in the requested range.
		return nil, nil
	}

	bars := make([]domain.Bar, 0, len(kr.Data.Klines))
	for _, line := range kr.Data.Klines {
		fields := strings.Split(line, ",")
		if len(fields) != 11 {
			return nil, fmt.Errorf("%w: malformed kline record for %s: %q", domain.ErrData, symbol, line)
		}

		date, err := time.ParseInLocation("2006-01-02", fields[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing kline date for %s: %v", domain.ErrData, symbol, err)
		}

		var fs [6]float64
		for i, idx := range []int{1, 2, 3, 4, 6, 8} {
			fs[i], err = strconv.ParseFloat(fields[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing kline field for %s: %v", domain.ErrData, symbol, err)
			}
		}
		volume, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing kline volume for %s: %v", domain.ErrData, symbol, err)
		}
		turnover, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing kline turnover for %s: %v", domain.ErrData, symbol, err)
		}

		bars = append(bars, domain.Bar{
			Symbol:   symbol,
			Date:     date,
			Open:     fs[0],
			Close:    fs[1],
			High:     fs[2],
			Low:      fs[3],
			Amount:   fs[4],
			PctChg:   fs[5],
			Volume:   volume,
			Turnover: turnover,
		})
	}
	return bars, nil
}

// ---------------------------------------------------------------------------
// DailyBarGatherer — daily bar collection for China A-shares.
// ---------------------------------------------------------------------------

// DailyBarGatherer fetches daily bars for a configured set of symbols via an
// EastmoneyClient and persists them through a BarStore.
type DailyBarGatherer struct {
	client    *EastmoneyClient
	store     store.BarStore
	symbols   []string
	startDate string
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer for the given symbols. The
// rate limit bounds requests per minute against the upstream API.
func NewDailyBarGatherer(client *EastmoneyClient, s store.BarStore, symbols []string, startDate string, rateLimitPerMin int) *DailyBarGatherer {
	return &DailyBarGatherer{
		client:    client,
		store:     s,
		symbols:   symbols,
		startDate: startDate,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		log:       slog.Default().With("gatherer", "cn-daily"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "cn-daily" }

// Run fetches daily bars for every configured symbol from the start date to
// today and writes them to the store. Already-stored bars are merged, so the
// run is idempotent within a day.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("%w: parsing start date %q: %v", domain.ErrConfig, g.startDate, err)
	}
	end := util.LatestFinishedTradingDay(time.Now())

	g.log.Info("starting cn-daily",
		"symbols", len(g.symbols),
		"start", g.startDate,
		"end", end.Format("2006-01-02"),
	)

	runStart := time.Now()
	var fetched, empty, failed int
	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var err error
			bars, err = g.client.QueryDailyBars(ctx, symbol, start, end)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.log.Error("fetch failed", "symbol", symbol, "err", err)
			failed++
			continue
		}
		if len(bars) == 0 {
			g.log.Warn("no bars returned", "symbol", symbol)
			empty++
			continue
		}

		if err := g.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars for %s: %w", symbol, err)
		}
		fetched++
		g.log.Info("symbol done", "symbol", symbol, "bars", len(bars))
	}

	g.log.Info("complete",
		"fetched", fetched,
		"empty", empty,
		"failed", failed,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}
