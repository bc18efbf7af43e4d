// Package coingecko fetches current and historical bitcoin prices from the
// CoinGecko public API.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"resty.dev/v3"

	"btcreturns/internal/fetcher"
	"btcreturns/internal/money"
)

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	coinID = "bitcoin"
)

// ErrPriceNotFound means the API answered but had no usable price for the
// requested currency or date.
var ErrPriceNotFound = errors.New("price not found")

// SimplePriceResponse is the body of GET /simple/price.
//
//	{"bitcoin": {"usd": 60000}}
type SimplePriceResponse struct {
	Bitcoin map[string]float64 `json:"bitcoin"`
}

// HistoryResponse is the subset of GET /coins/bitcoin/history used here.
//
//	{"id": "bitcoin", "market_data": {"current_price": {"usd": 998.33}}}
type HistoryResponse struct {
	ID         string      `json:"id"`
	MarketData *MarketData `json:"market_data"`
}

// MarketData holds the per-currency prices of a history snapshot.
type MarketData struct {
	CurrentPrice map[string]float64 `json:"current_price"`
}

// Client talks to the CoinGecko API.
type Client struct {
	client *resty.Client
}

// NewClient creates a CoinGecko client rooted at baseURL.
func NewClient(baseURL string, opts fetcher.ClientOptions) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{client: fetcher.NewHTTPClient(baseURL, opts)}
}

// HistoryDate returns the dd-mm-yyyy date string for January 1 of year.
func HistoryDate(year int) string {
	return "01-01-" + strconv.Itoa(year)
}

// CurrentPrice returns the live price of one bitcoin in currency.
func (c *Client) CurrentPrice(ctx context.Context, currency money.Currency) (float64, error) {
	var result SimplePriceResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": currency.Lower(),
		}).
		SetResult(&result).
		Get("/simple/price")

	if err != nil {
		return 0, fmt.Errorf("failed to fetch current price: %w", fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		return 0, fmt.Errorf("failed to fetch current price: %w", fetcher.ClassifyHTTPError(resp.StatusCode()))
	}

	if result.Bitcoin == nil {
		return 0, fmt.Errorf("%w: response has no %q entry", ErrPriceNotFound, coinID)
	}

	price, ok := result.Bitcoin[currency.Lower()]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("%w: no current %s price in response", ErrPriceNotFound, currency)
	}

	return price, nil
}

// HistoricalPrice returns the price of one bitcoin in currency on January 1
// of year.
//
// ErrPriceNotFound is returned when the API has no data for that date or
// currency, including 4xx answers for dates outside its coverage. Transport
// failures, rate limiting and server errors are returned as a
// *fetcher.FetchError without ErrPriceNotFound.
func (c *Client) HistoricalPrice(ctx context.Context, year int, currency money.Currency) (float64, error) {
	var result HistoryResponse
	date := HistoryDate(year)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"date":         date,
			"localization": "false",
		}).
		SetResult(&result).
		Get("/coins/" + coinID + "/history")

	if err != nil {
		return 0, fmt.Errorf("failed to fetch price for %s: %w", date, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		fe := fetcher.ClassifyHTTPError(resp.StatusCode())
		if fe.Type == fetcher.ErrorTypeClient {
			return 0, fmt.Errorf("%w for %s: %w", ErrPriceNotFound, date, fe)
		}
		return 0, fmt.Errorf("failed to fetch price for %s: %w", date, fe)
	}

	if result.MarketData == nil || result.MarketData.CurrentPrice == nil {
		return 0, fmt.Errorf("%w for %s: response has no market data", ErrPriceNotFound, date)
	}

	price, ok := result.MarketData.CurrentPrice[currency.Lower()]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("%w for %s in %s", ErrPriceNotFound, date, currency)
	}

	return price, nil
}
