// Package pipelinecmd implements the royalties CLI subcommands: running the
// reconciliation pipeline, exporting its tables, and inspecting the
// effective exchange rates.
package pipelinecmd

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/resulam/royalties/internal/exchange"
	"github.com/resulam/royalties/internal/reference"
)

// Environment variables consulted when flags are left at their defaults.
const (
	envBooksPath  = "BOOKS_DATABASE_PATH"
	envSalesPath  = "ROYALTIES_HISTORY_PATH"
	envTablesPath = "REFERENCE_TABLES_PATH"
	envUseLive    = "USE_LIVE_RATES"
	envCacheDir   = "RATES_CACHE_DIR"
)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

// loadTables returns the reference tables from an override file when one is
// configured, the embedded defaults otherwise.
func loadTables(path string) (*reference.Tables, error) {
	if path == "" {
		path = os.Getenv(envTablesPath)
	}
	if path != "" {
		return reference.Load(path)
	}
	return reference.Default()
}

// resolveRates builds the effective exchange-rate table for a run.
func resolveRates(ctx context.Context, tables *reference.Tables, useLive bool, cacheDir string, ttl time.Duration) (map[string]float64, exchange.Source) {
	if cacheDir == "" {
		cacheDir = envOr(envCacheDir, "data")
	}
	svc := exchange.NewService(cacheDir, ttl, tables.Rates)
	return svc.Rates(ctx, useLive || envBool(envUseLive))
}
