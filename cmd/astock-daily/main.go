package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"astock/internal/config"
	"astock/internal/gather"
	"astock/internal/store"
	"astock/internal/util"
)

func main() {
	cfgPath := "config/astock.yaml"
	if p := os.Getenv("ASTOCK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	// Symbols come from the config; fall back to the watchlist when unset.
	symbols := cfg.Gather.CNDaily.Symbols
	if len(symbols) == 0 && cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening sqlite store: %v", err)
		}
		entries, err := db.ListWatches(context.Background())
		db.Close()
		if err != nil {
			log.Fatalf("listing watchlist: %v", err)
		}
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured and watchlist is empty")
	}

	client := gather.NewEastmoneyClient(cfg.Gather.CNDaily.BaseURL)
	gatherer := gather.NewDailyBarGatherer(
		client,
		pstore,
		symbols,
		cfg.Gather.CNDaily.StartDate,
		cfg.Gather.CNDaily.RateLimitPerMin,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("starting %s gatherer\n", gatherer.Name())
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gatherer error: %v", err)
	}
}
