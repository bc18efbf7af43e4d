package coingecko

import (
	"context"
	"fmt"

	"btcreturns/internal/fetcher"
	"btcreturns/internal/money"
)

// Current returns a fetcher for the live price in currency.
func (c *Client) Current(currency money.Currency) fetcher.Fetcher {
	return NewSpotFetcher(c, currency)
}

// Historical returns a fetcher for the price on January 1 of year.
func (c *Client) Historical(currency money.Currency, year int) fetcher.Fetcher {
	return NewHistoryFetcher(c, currency, year)
}

// SpotFetcher fetches the current bitcoin price in one currency.
type SpotFetcher struct {
	client   *Client
	currency money.Currency
}

// NewSpotFetcher creates a fetcher for the live price in currency.
func NewSpotFetcher(client *Client, currency money.Currency) *SpotFetcher {
	return &SpotFetcher{client: client, currency: currency}
}

// Fetch retrieves the current price
func (f *SpotFetcher) Fetch(ctx context.Context) (float64, error) {
	return f.client.CurrentPrice(ctx, f.currency)
}

// Key returns the key for this fetcher
func (f *SpotFetcher) Key() string {
	return fmt.Sprintf("fetcher:coingecko:btc_%s", f.currency.Lower())
}

// HistoryFetcher fetches the bitcoin price on January 1 of a year.
type HistoryFetcher struct {
	client   *Client
	currency money.Currency
	year     int
}

// NewHistoryFetcher creates a fetcher for the price on January 1 of year.
func NewHistoryFetcher(client *Client, currency money.Currency, year int) *HistoryFetcher {
	return &HistoryFetcher{client: client, currency: currency, year: year}
}

// Fetch retrieves the historical price. See Client.HistoricalPrice for the
// error contract.
func (f *HistoryFetcher) Fetch(ctx context.Context) (float64, error) {
	return f.client.HistoricalPrice(ctx, f.year, f.currency)
}

// Key returns the key for this fetcher
func (f *HistoryFetcher) Key() string {
	return fmt.Sprintf("fetcher:coingecko:btc_%s:%d-01-01", f.currency.Lower(), f.year)
}
