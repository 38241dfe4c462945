// Package exchange resolves currency -> USD multipliers, optionally from a
// live rate API with disk caching, falling back to a hardcoded table so rate
// resolution can never fail the pipeline.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultAPIURL is the free exchangerate-api latest-rates endpoint. The
// response reports how much one base unit is worth in each currency, so the
// values are inverted before use.
const DefaultAPIURL = "https://api.exchangerate-api.com/v4/latest/USD"

// Source identifies where a rate table came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
	SourceDefault  Source = "default"
)

// Service fetches and caches exchange rates.
type Service struct {
	// APIURL is the live rates endpoint; overridable for tests.
	APIURL string

	// CachePath is where fetched rates are stored as JSON.
	CachePath string

	// TTL is how long a cached table stays fresh.
	TTL time.Duration

	// Fallback is the hardcoded rate table used when neither a live fetch
	// nor a fresh cache is available.
	Fallback map[string]float64

	httpClient *http.Client
}

// NewService creates a rate service caching under cacheDir.
func NewService(cacheDir string, ttl time.Duration, fallback map[string]float64) *Service {
	return &Service{
		APIURL:    DefaultAPIURL,
		CachePath: filepath.Join(cacheDir, "exchange_rates_cache.json"),
		TTL:       ttl,
		Fallback:  fallback,
		httpClient: &http.Client{
			// Hard timeout: the rate fetch is the pipeline's only network
			// call and must never hang it.
			Timeout: 5 * time.Second,
		},
	}
}

type cacheEnvelope struct {
	Timestamp time.Time          `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// Rates resolves the effective rate table. With useLive set it tries the
// live API first and caches the result; otherwise, or on any failure, it
// degrades through fresh cache, then the hardcoded fallback, then a bare
// 1:1 USD table.
func (s *Service) Rates(ctx context.Context, useLive bool) (map[string]float64, Source) {
	if useLive {
		rates, err := s.fetchLive(ctx)
		if err == nil {
			s.saveCache(rates)
			slog.Info("Using live exchange rates", "currencies", len(rates))
			return rates, SourceLive
		}
		slog.Warn("Live exchange rate fetch failed, using fallback", "err", err)
	}

	if rates, err := s.loadCache(); err == nil {
		slog.Info("Using cached exchange rates", "path", s.CachePath, "currencies", len(rates))
		return rates, SourceCache
	} else if !os.IsNotExist(err) {
		slog.Debug("Exchange rate cache unusable", "err", err)
	}

	if len(s.Fallback) > 0 {
		slog.Info("Using hardcoded exchange rates", "currencies", len(s.Fallback))
		return s.Fallback, SourceFallback
	}

	slog.Warn("No exchange rates available, defaulting to 1:1 USD")
	return map[string]float64{"USD": 1.0}, SourceDefault
}

func (s *Service) fetchLive(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.APIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate response contained no rates")
	}

	// The API reports 1 USD in each currency; invert to get each currency's
	// USD multiplier.
	rates := make(map[string]float64, len(payload.Rates))
	for currency, rate := range payload.Rates {
		if rate == 0 {
			continue
		}
		rates[currency] = 1 / rate
	}

	return rates, nil
}

func (s *Service) loadCache() (map[string]float64, error) {
	data, err := os.ReadFile(s.CachePath)
	if err != nil {
		return nil, err
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse rate cache: %w", err)
	}

	age := time.Since(envelope.Timestamp)
	if age > s.TTL {
		return nil, fmt.Errorf("rate cache expired (%s old)", age.Round(time.Minute))
	}
	if len(envelope.Rates) == 0 {
		return nil, fmt.Errorf("rate cache is empty")
	}

	return envelope.Rates, nil
}

func (s *Service) saveCache(rates map[string]float64) {
	if err := os.MkdirAll(filepath.Dir(s.CachePath), 0755); err != nil {
		slog.Warn("Failed to create rate cache directory", "err", err)
		return
	}

	data, err := json.MarshalIndent(cacheEnvelope{Timestamp: time.Now(), Rates: rates}, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode rate cache", "err", err)
		return
	}

	if err := os.WriteFile(s.CachePath, data, 0644); err != nil {
		slog.Warn("Failed to write rate cache", "err", err)
	}
}
