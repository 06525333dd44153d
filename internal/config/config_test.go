package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Create a temporary YAML config file.
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/astock/data"
  sqlite_path: "/tmp/astock/astock.db"
server:
  host: "127.0.0.1"
  port: 8080
logging:
  level: "info"
  format: "json"
gather:
  cn_daily:
    start_date: "2020-01-01"
    rate_limit_per_min: 120
    symbols:
      - "600519"
      - "000001"
backtest:
  initial_cash: 500000
  commission: 0.0003
  lot_size: 100
sweep:
  max_workers: 8
`)

	tmpFile, err := os.CreateTemp("", "astock-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/astock/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/astock/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/astock/astock.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/astock/astock.db")
	}

	// -- Server --
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- Gather --
	if cfg.Gather.CNDaily.StartDate != "2020-01-01" {
		t.Errorf("Gather.CNDaily.StartDate = %q, want %q", cfg.Gather.CNDaily.StartDate, "2020-01-01")
	}
	if cfg.Gather.CNDaily.RateLimitPerMin != 120 {
		t.Errorf("Gather.CNDaily.RateLimitPerMin = %d, want %d", cfg.Gather.CNDaily.RateLimitPerMin, 120)
	}
	if len(cfg.Gather.CNDaily.Symbols) != 2 || cfg.Gather.CNDaily.Symbols[0] != "600519" {
		t.Errorf("Gather.CNDaily.Symbols = %v, want [600519 000001]", cfg.Gather.CNDaily.Symbols)
	}

	// -- Backtest --
	if cfg.Backtest.InitialCash != 500000 {
		t.Errorf("Backtest.InitialCash = %f, want %f", cfg.Backtest.InitialCash, 500000.0)
	}
	if cfg.Backtest.LotSize != 100 {
		t.Errorf("Backtest.LotSize = %d, want %d", cfg.Backtest.LotSize, 100)
	}

	// -- Sweep --
	if cfg.Sweep.MaxWorkers != 8 {
		t.Errorf("Sweep.MaxWorkers = %d, want %d", cfg.Sweep.MaxWorkers, 8)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/original/data"
  sqlite_path: "/original/astock.db"
logging:
  level: "debug"
`)

	tmpFile, err := os.CreateTemp("", "astock-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	// Set environment overrides.
	os.Setenv("DATA_DIR", "/env/data")
	os.Setenv("SERVER_PORT", "9000")
	os.Unsetenv("SQLITE_PATH")
	defer os.Unsetenv("DATA_DIR")
	defer os.Unsetenv("SERVER_PORT")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	// sqlite_path should remain from YAML since no env override was set.
	if cfg.Storage.SQLitePath != "/original/astock.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q (from YAML)", cfg.Storage.SQLitePath, "/original/astock.db")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d (env override)", cfg.Server.Port, 9000)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadDefaultsApplied(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "astock-config-min-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	if _, err := tmpFile.Write([]byte("storage:\n  data_dir: \"/d\"\n")); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Backtest.Commission != 0.0003 {
		t.Errorf("default Backtest.Commission = %v, want 0.0003", cfg.Backtest.Commission)
	}
	if cfg.Backtest.LotSize != 100 {
		t.Errorf("default Backtest.LotSize = %d, want 100", cfg.Backtest.LotSize)
	}
	if cfg.Sweep.MaxWorkers != 4 {
		t.Errorf("default Sweep.MaxWorkers = %d, want 4", cfg.Sweep.MaxWorkers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/astock.yaml"); err == nil {
		t.Error("Load on missing file: error = nil, want error")
	}
}
