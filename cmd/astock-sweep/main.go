package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"astock/internal/backtest"
	"astock/internal/config"
	"astock/internal/store"
	"astock/internal/strategy/builtins"
	"astock/internal/util"
)

func parseInts(csv string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func main() {
	var (
		symbol  = flag.String("symbol", "", "six-digit A-share symbol (required)")
		start   = flag.String("start", "", "start date YYYY-MM-DD (required)")
		end     = flag.String("end", "", "end date YYYY-MM-DD (default today)")
		shorts  = flag.String("shorts", "5,10,20", "comma-separated short windows")
		longs   = flag.String("longs", "20,30,60", "comma-separated long windows")
		workers = flag.Int("workers", 0, "concurrent workers (default from config)")
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
		log.Fatalf("no bars for %s in range", *symbol)
	}

	shortWindows, err := parseInts(*shorts)
	if err != nil {
		log.Fatal(err)
	}
	longWindows, err := parseInts(*longs)
	if err != nil {
		log.Fatal(err)
	}

	simCfg := backtest.Config{
		InitialCash: cfg.Backtest.InitialCash,
		Commission:  cfg.Backtest.Commission,
		LotSize:     cfg.Backtest.LotSize,
	}

	var tasks []backtest.Task
	for _, s := range shortWindows {
		for _, l := range longWindows {
			if s >= l {
				continue
			}
			rule, err := builtins.New("ma-cross", builtins.Options{ShortWindow: s, LongWindow: l})
			if err != nil {
				log.Fatalf("building rule: %v", err)
			}
			tasks = append(tasks, backtest.Task{
				Name:   fmt.Sprintf("ma-cross-%d-%d", s, l),
				Rule:   rule,
				Config: simCfg,
			})
		}
	}
	if len(tasks) == 0 {
		log.Fatal("no valid short/long window combinations")
	}

	maxWorkers := cfg.Sweep.MaxWorkers
	if *workers > 0 {
		maxWorkers = *workers
	}

	results, err := backtest.Sweep(ctx, bars, tasks, maxWorkers)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}

	// Best performers first; failed tasks sink to the bottom.
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		if results[i].Err != nil {
			return false
		}
		return results[i].Report.TotalReturn > results[j].Report.TotalReturn
	})

	fmt.Printf("%s  %s .. %s  (%d bars, %d tasks)\n\n",
		*symbol, bars[0].Date.Format("2006-01-02"),
		bars[len(bars)-1].Date.Format("2006-01-02"), len(bars), len(tasks))
	fmt.Printf("%-18s %10s %10s %10s %8s %7s\n",
		"task", "return", "annual", "maxdd", "winrate", "trades")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-18s failed: %v\n", r.Name, r.Err)
			continue
		}
		fmt.Printf("%-18s %9.2f%% %9.2f%% %9.2f%% %7.0f%% %7d\n",
			r.Name,
			r.Report.TotalReturn*100,
			r.Report.AnnualizedReturn*100,
			r.Report.MaxDrawdown*100,
			r.Report.WinRate*100,
			r.Report.TradeCount)
	}
}
