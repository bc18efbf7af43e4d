// Package pricing resolves the historical bitcoin price used by a
// calculation: the live API first, then the static fallback table, then the
// fixed default.
package pricing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"btcreturns/internal/calculator"
	"btcreturns/internal/coingecko"
	"btcreturns/internal/fallback"
	"btcreturns/internal/fetcher"
	"btcreturns/internal/money"
)

// Resolve fetches the live historical price and falls back to the static
// table only when the live source reports that the data is absent. Any
// other error is returned unchanged.
func Resolve(ctx context.Context, live fetcher.Fetcher, currency money.Currency, year int, logger *slog.Logger) (float64, calculator.PriceSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	price, err := live.Fetch(ctx)
	if err == nil {
		return price, calculator.SourceLive, nil
	}
	if !errors.Is(err, coingecko.ErrPriceNotFound) {
		return 0, "", err
	}

	if p, ok := fallback.Lookup(currency, year); ok {
		logger.Info("live historical price unavailable, using fallback table",
			"key", live.Key(),
			"currency", currency.String(),
			"year", year,
			"price", p,
			"reason", err.Error())
		return p, calculator.SourceTable, nil
	}

	logger.Warn("no fallback table entry, using default price",
		"key", live.Key(),
		"currency", currency.String(),
		"year", year,
		"price", fallback.DefaultPrice,
		"reason", err.Error())
	return fallback.DefaultPrice, calculator.SourceDefault, nil
}

// FallbackFetcher wraps a live historical fetcher with Resolve so it can run
// alongside other fetchers in a coordinator. It is meant for a single
// request; Source reports where the last fetched price came from.
type FallbackFetcher struct {
	live     fetcher.Fetcher
	currency money.Currency
	year     int
	logger   *slog.Logger

	mu     sync.Mutex
	source calculator.PriceSource
}

// NewFallbackFetcher creates a FallbackFetcher around live.
func NewFallbackFetcher(live fetcher.Fetcher, currency money.Currency, year int, logger *slog.Logger) *FallbackFetcher {
	return &FallbackFetcher{
		live:     live,
		currency: currency,
		year:     year,
		logger:   logger,
	}
}

// Fetch resolves the historical price.
func (f *FallbackFetcher) Fetch(ctx context.Context) (float64, error) {
	price, source, err := Resolve(ctx, f.live, f.currency, f.year, f.logger)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.source = source
	f.mu.Unlock()
	return price, nil
}

// Key returns the key of the wrapped live fetcher.
func (f *FallbackFetcher) Key() string {
	return f.live.Key()
}

// Source reports where the last successfully fetched price came from, or
// "" if nothing has been fetched.
func (f *FallbackFetcher) Source() calculator.PriceSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}
