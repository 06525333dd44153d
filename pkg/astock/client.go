// Package astock provides a Go SDK for the astock-server REST API.
package astock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the astock-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Bar is one daily bar.
type Bar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Amount   float64 `json:"amount"`
	Turnover float64 `json:"turnover"`
	PctChg   float64 `json:"pctChg"`
}

// ScoreReport is the signal reading for the latest bar of a symbol.
type ScoreReport struct {
	Symbol   string   `json:"symbol"`
	Date     string   `json:"date"`
	Close    float64  `json:"close"`
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Reasons  []string `json:"reasons"`
	Verdict  string   `json:"verdict"`
}

// BacktestRequest describes one backtest run.
type BacktestRequest struct {
	Symbol      string  `json:"symbol"`
	Rule        string  `json:"rule"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	InitialCash float64 `json:"initialCash,omitempty"`
	Commission  float64 `json:"commission,omitempty"`
	LotSize     int64   `json:"lotSize,omitempty"`
	ShortWindow int     `json:"shortWindow,omitempty"`
	LongWindow  int     `json:"longWindow,omitempty"`
	BollWindow  int     `json:"bollWindow,omitempty"`
	BollK       float64 `json:"bollK,omitempty"`
}

// Report is a backtest performance summary.
type Report struct {
	InitialCash      float64  `json:"initial_cash"`
	FinalEquity      float64  `json:"final_equity"`
	TotalReturn      float64  `json:"total_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	WinRate          float64  `json:"win_rate"`
	TradeCount       int      `json:"trade_count"`
	RoundTrips       int      `json:"round_trips"`
	Anomalies        []string `json:"anomalies,omitempty"`
}

// BacktestResult is the full backtest response.
type BacktestResult struct {
	Symbol string  `json:"symbol"`
	Rule   string  `json:"rule"`
	Report *Report `json:"report"`
}

// WatchEntry is one watchlist entry.
type WatchEntry struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	AddedAt string `json:"addedAt"`
}

// Prediction is one directional call.
type Prediction struct {
	ID           int64   `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Direction    string  `json:"direction"`
	InitialPrice float64 `json:"initialPrice"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
}

// CheckResult summarizes one prediction check pass.
type CheckResult struct {
	Checked  int          `json:"checked"`
	Resolved []Prediction `json:"resolved"`
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// post issues a POST request with an optional JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Symbols lists the symbols available in the bar store.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var resp struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.get(ctx, "/api/symbols", &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// Bars retrieves daily bars for a symbol.
func (c *Client) Bars(ctx context.Context, symbol, start, end string) ([]Bar, error) {
	var resp struct {
		Bars []Bar `json:"bars"`
	}
	path := fmt.Sprintf("/api/bars/%s?start=%s&end=%s", symbol, start, end)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Bars, nil
}

// Analysis retrieves the latest signal score for a symbol.
func (c *Client) Analysis(ctx context.Context, symbol string) (*ScoreReport, error) {
	var resp struct {
		Report *ScoreReport `json:"report"`
	}
	if err := c.get(ctx, "/api/analysis/"+symbol, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

// Backtest runs a backtest on the server.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var resp BacktestResult
	if err := c.post(ctx, "/api/backtest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watchlist lists watchlist entries.
func (c *Client) Watchlist(ctx context.Context) ([]WatchEntry, error) {
	var resp struct {
		Entries []WatchEntry `json:"entries"`
	}
	if err := c.get(ctx, "/api/watchlist", &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// AddWatch adds a symbol to the watchlist.
func (c *Client) AddWatch(ctx context.Context, symbol, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/api/watchlist/"+symbol, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// RemoveWatch removes a symbol from the watchlist.
func (c *Client) RemoveWatch(ctx context.Context, symbol string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/watchlist/"+symbol, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Predictions lists predictions, optionally filtered by status.
func (c *Client) Predictions(ctx context.Context, status string) ([]Prediction, error) {
	path := "/api/predictions"
	if status != "" {
		path += "?status=" + status
	}
	var resp struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// Predict records a directional prediction for a symbol.
func (c *Client) Predict(ctx context.Context, symbol, name, direction string) (*Prediction, error) {
	var resp Prediction
	err := c.post(ctx, "/api/predictions", map[string]string{
		"symbol":    symbol,
		"name":      name,
		"direction": direction,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckPredictions resolves pending predictions against the latest prices.
func (c *Client) CheckPredictions(ctx context.Context) (*CheckResult, error) {
	var resp CheckResult
	if err := c.post(ctx, "/api/predictions/check", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
