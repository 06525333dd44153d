package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"astock/internal/backtest"
	"astock/internal/config"
	"astock/internal/store"
	"astock/internal/strategy"
	"astock/internal/strategy/builtins"
	"astock/internal/util"
)

func main() {
	var (
		symbol      = flag.String("symbol", "", "six-digit A-share symbol (required)")
		rule        = flag.String("rule", "ma-cross", "strategy rule: ma-cross, momentum, boll-breakout")
		start       = flag.String("start", "", "start date YYYY-MM-DD (required)")
		end         = flag.String("end", "", "end date YYYY-MM-DD (default today)")
		cash        = flag.Float64("cash", 0, "initial cash (default from config)")
		commission  = flag.Float64("commission", -1, "commission rate (default from config)")
		lot         = flag.Int64("lot", 0, "lot size (default from config)")
		shortWindow = flag.Int("short", 0, "short window for ma-cross")
		longWindow  = flag.Int("long", 0, "long window for ma-cross")
		bollWindow  = flag.Int("boll-window", 0, "window for boll-breakout")
		bollK       = flag.Float64("boll-k", 0, "band width for boll-breakout")
		save        = flag.Bool("save", false, "persist the run summary to sqlite")
	)
	flag.Parse()

	if *symbol == "" || *start == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfgPath := "config/astock.yaml"
	if p := os.Getenv("ASTOCK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("invalid start date: %v", err)
	}
	endDate := time.Now().UTC()
	if *end != "" {
		endDate, err = time.Parse("2006-01-02", *end)
		if err != nil {
			log.Fatalf("invalid end date: %v", err)
		}
	}

	ctx := context.Background()
	bars, err := store.NewParquetStore(cfg.Storage.DataDir).ReadBars(ctx, *symbol, startDate, endDate)
	if err != nil {
		log.Fatalf("reading bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("no bars for %s in [%s, %s]", *symbol, *start, endDate.Format("2006-01-02"))
	}

	r, err := builtins.New(*rule, builtins.Options{
		ShortWindow: *shortWindow,
		LongWindow:  *longWindow,
		BollWindow:  *bollWindow,
		BollK:       *bollK,
	})
	if err != nil {
		log.Fatalf("building rule: %v", err)
	}

	signals, err := strategy.Generate(bars, r)
	if err != nil {
		log.Fatalf("generating signals: %v", err)
	}

	simCfg := backtest.Config{
		InitialCash: cfg.Backtest.InitialCash,
		Commission:  cfg.Backtest.Commission,
		LotSize:     cfg.Backtest.LotSize,
	}
	if *cash > 0 {
		simCfg.InitialCash = *cash
	}
	if *commission >= 0 {
		simCfg.Commission = *commission
	}
	if *lot > 0 {
		simCfg.LotSize = *lot
	}

	sim, err := backtest.NewSimulator(simCfg)
	if err != nil {
		log.Fatalf("creating simulator: %v", err)
	}
	result, err := sim.Run(bars, signals)
	if err != nil {
		log.Fatalf("running backtest: %v", err)
	}
	report, err := result.Summary()
	if err != nil {
		log.Fatalf("summarizing: %v", err)
	}

	if *save {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening sqlite store: %v", err)
		}
		defer db.Close()

		run := &store.RunRecord{
			Symbol:      *symbol,
			Rule:        r.Name(),
			StartDate:   bars[0].Date,
			EndDate:     bars[len(bars)-1].Date,
			InitialCash: result.InitialCash,
			FinalEquity: result.Equity[len(result.Equity)-1].TotalEquity,
			TotalReturn: report.TotalReturn,
			MaxDrawdown: report.MaxDrawdown,
			WinRate:     report.WinRate,
			TradeCount:  len(result.Trades),
		}
		if err := db.SaveRun(ctx, run); err != nil {
			log.Fatalf("saving run: %v", err)
		}
	}

	fmt.Printf("%s %s  %s .. %s  (%d bars)\n",
		*symbol, r.Name(), bars[0].Date.Format("2006-01-02"),
		bars[len(bars)-1].Date.Format("2006-01-02"), len(bars))
	for _, t := range result.Trades {
		fmt.Printf("  %s  %-4s %6d @ %.2f  cash %.2f\n",
			t.Date.Format("2006-01-02"), t.Side, t.Quantity, t.Price, t.Cash)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encoding report: %v", err)
	}
	fmt.Println(string(out))
}
