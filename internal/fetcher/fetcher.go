// Package fetcher holds what every price source shares: the Fetcher
// contract, the fetch error taxonomy and the retrying HTTP client.
package fetcher

import "context"

// Fetcher retrieves a single bitcoin price.
type Fetcher interface {
	// Fetch returns the price in the fetcher's currency.
	Fetch(ctx context.Context) (float64, error)

	// Key names the price in logs and CLI output, as
	// fetcher:{source}:{identifier}, e.g. fetcher:coingecko:btc_eur:2017-01-01.
	Key() string
}

// Result is the outcome of one Fetch. Value is meaningless when Error is set.
type Result struct {
	Key   string
	Value float64
	Error error
}
