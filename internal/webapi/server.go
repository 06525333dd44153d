package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"astock/internal/analysis"
	"astock/internal/backtest"
	"astock/internal/domain"
	"astock/internal/store"
	"astock/internal/strategy"
	"astock/internal/strategy/builtins"
)

// Server serves the astock REST API.
type Server struct {
	bars     store.BarStore
	watches  store.WatchlistStore
	preds    store.PredictionStore
	runs     store.RunStore
	defaults backtest.Config
	log      *slog.Logger
}

// NewServer creates a Server over the given stores. The backtest defaults
// apply when a request leaves cash, commission, or lot size unset.
func NewServer(bars store.BarStore, db *store.SQLiteStore, defaults backtest.Config, log *slog.Logger) *Server {
	return &Server{
		bars:     bars,
		watches:  db,
		preds:    db,
		runs:     db,
		defaults: defaults,
		log:      log,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/bars/{symbol}", s.handleBars)
	mux.HandleFunc("GET /api/analysis/{symbol}", s.handleAnalysis)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/watchlist", s.handleGetWatchlist)
	mux.HandleFunc("PUT /api/watchlist/{symbol}", s.handleAddWatchlist)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveWatchlist)
	mux.HandleFunc("GET /api/predictions", s.handleListPredictions)
	mux.HandleFunc("POST /api/predictions", s.handleAddPrediction)
	mux.HandleFunc("POST /api/predictions/check", s.handleCheckPredictions)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.bars.ListSymbols(r.Context())
	if err != nil {
		s.log.Error("listing symbols", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, SymbolsResponse{Symbols: symbols})
}

// parseRange reads start/end query params, defaulting to the last year.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 0)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = t
	}
	return start, end, nil
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.bars.ReadBars(r.Context(), symbol, start, end)
	if err != nil {
		s.log.Error("reading bars", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read bars")
		return
	}

	out := make([]BarJSON, len(bars))
	for i, b := range bars {
		out[i] = convertBar(b)
	}
	writeJSON(w, BarsResponse{Symbol: symbol, Bars: out})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.bars.ReadBars(r.Context(), symbol, start, end)
	if err != nil {
		s.log.Error("reading bars", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read bars")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bars for %s", symbol))
		return
	}

	rep, err := analysis.Score(bars, analysis.Config{})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, AnalysisResponse{Report: rep})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	var req BacktestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Symbol == "" || req.Rule == "" {
		writeError(w, http.StatusBadRequest, "symbol and rule required")
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", req.Start))
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", req.End))
		return
	}

	bars, err := s.bars.ReadBars(r.Context(), req.Symbol, start, end)
	if err != nil {
		s.log.Error("reading bars", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read bars")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bars for %s in range", req.Symbol))
		return
	}

	rule, err := builtins.New(req.Rule, builtins.Options{
		ShortWindow: req.ShortWindow,
		LongWindow:  req.LongWindow,
		BollWindow:  req.BollWindow,
		BollK:       req.BollK,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	signals, err := strategy.Generate(bars, rule)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	cfg := s.defaults
	if req.InitialCash != 0 {
		cfg.InitialCash = req.InitialCash
	}
	if req.Commission != 0 {
		cfg.Commission = req.Commission
	}
	if req.LotSize != 0 {
		cfg.LotSize = req.LotSize
	}

	sim, err := backtest.NewSimulator(cfg)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	result, err := sim.Run(bars, signals)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	report, err := result.Summary()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// Persist the run summary; a storage failure is logged, not fatal.
	run := &store.RunRecord{
		Symbol:      req.Symbol,
		Rule:        rule.Name(),
		StartDate:   bars[0].Date,
		EndDate:     bars[len(bars)-1].Date,
		InitialCash: result.InitialCash,
		FinalEquity: result.Equity[len(result.Equity)-1].TotalEquity,
		TotalReturn: report.TotalReturn,
		MaxDrawdown: report.MaxDrawdown,
		WinRate:     report.WinRate,
		TradeCount:  len(result.Trades),
	}
	if err := s.runs.SaveRun(r.Context(), run); err != nil {
		s.log.Error("saving run", "symbol", req.Symbol, "error", err)
	}

	trades := make([]TradeJSON, len(result.Trades))
	for i, t := range result.Trades {
		trades[i] = convertTrade(t)
	}
	equity := make([]EquityPointJSON, len(result.Equity))
	for i, p := range result.Equity {
		equity[i] = EquityPointJSON{Date: p.Date.Format(dateLayout), Equity: p.TotalEquity}
	}

	writeJSON(w, BacktestResponse{
		Symbol: req.Symbol,
		Rule:   rule.Name(),
		Report: report,
		Trades: trades,
		Equity: equity,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), symbol, limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	out := make([]RunJSON, len(runs))
	for i, run := range runs {
		out[i] = convertRun(run)
	}
	writeJSON(w, RunsResponse{Runs: out})
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.watches.ListWatches(r.Context())
	if err != nil {
		s.log.Error("listing watchlist", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	out := make([]WatchEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = WatchEntryJSON{
			Symbol:  e.Symbol,
			Name:    e.Name,
			AddedAt: e.AddedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, WatchlistResponse{Entries: out})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	var req AddWatchRequest
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16)); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	if err := s.watches.AddWatch(r.Context(), symbol, req.Name); err != nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("failed to add %s: %v", symbol, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := s.watches.RemoveWatch(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to remove %s: %v", symbol, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	preds, err := s.preds.ListPredictions(r.Context(), status)
	if err != nil {
		s.log.Error("listing predictions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}

	out := make([]PredictionJSON, len(preds))
	for i, p := range preds {
		out[i] = convertPrediction(p)
	}
	writeJSON(w, PredictionsResponse{Predictions: out})
}

func (s *Server) handleAddPrediction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	var req PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if req.Direction != store.PredictionUp && req.Direction != store.PredictionDown {
		writeError(w, http.StatusBadRequest, "direction must be UP or DOWN")
		return
	}

	price, err := s.latestClose(r, req.Symbol)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	p := &store.Prediction{
		Symbol:       req.Symbol,
		Name:         req.Name,
		Direction:    req.Direction,
		InitialPrice: price,
	}
	if err := s.preds.AddPrediction(r.Context(), p); err != nil {
		s.log.Error("adding prediction", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add prediction")
		return
	}
	writeJSON(w, convertPrediction(*p))
}

// handleCheckPredictions resolves pending predictions against the latest
// stored close. An UP call is correct above +1% and wrong below -2%; a DOWN
// call is correct below -1% and wrong above +2%. Anything in between stays
// pending.
func (s *Server) handleCheckPredictions(w http.ResponseWriter, r *http.Request) {
	pending, err := s.preds.ListPredictions(r.Context(), store.PredictionPending)
	if err != nil {
		s.log.Error("listing predictions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}

	resolved := []PredictionJSON{}
	for _, p := range pending {
		price, err := s.latestClose(r, p.Symbol)
		if err != nil {
			continue
		}

		status := resolvePrediction(p.Direction, p.InitialPrice, price)
		if status == store.PredictionPending {
			continue
		}
		if err := s.preds.ResolvePrediction(r.Context(), p.ID, status); err != nil {
			s.log.Error("resolving prediction", "id", p.ID, "error", err)
			continue
		}
		p.Status = status
		resolved = append(resolved, convertPrediction(p))
	}

	writeJSON(w, CheckResponse{Checked: len(pending), Resolved: resolved})
}

// resolvePrediction applies the directional thresholds to one prediction.
func resolvePrediction(direction string, initial, current float64) string {
	switch direction {
	case store.PredictionUp:
		if current > initial*1.01 {
			return store.PredictionCorrect
		}
		if current < initial*0.98 {
			return store.PredictionIncorrect
		}
	case store.PredictionDown:
		if current < initial*0.99 {
			return store.PredictionCorrect
		}
		if current > initial*1.02 {
			return store.PredictionIncorrect
		}
	}
	return store.PredictionPending
}

// latestClose returns the most recent stored close for a symbol.
func (s *Server) latestClose(r *http.Request, symbol string) (float64, error) {
	end := time.Now().UTC()
	bars, err := s.bars.ReadBars(r.Context(), symbol, end.AddDate(0, -3, 0), end)
	if err != nil || len(bars) == 0 {
		return 0, fmt.Errorf("no recent bars for %s", symbol)
	}
	return bars[len(bars)-1].Close, nil
}
