package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"btcreturns/internal/fetcher"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc func(ctx context.Context) (float64, error)
	KeyFunc   func() string

	calls atomic.Int32
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context) (float64, error) {
	m.calls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return 0, nil
}

// Key implements the Fetcher interface
func (m *MockFetcher) Key() string {
	if m.KeyFunc != nil {
		return m.KeyFunc()
	}
	return "mock:key"
}

// Calls returns how many times Fetch has been invoked.
func (m *MockFetcher) Calls() int {
	return int(m.calls.Load())
}

// NewMockFetcher creates a simple mock fetcher with predefined values
func NewMockFetcher(key string, value float64, err error) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context) (float64, error) {
			return value, err
		},
		KeyFunc: func() string {
			return key
		},
	}
}

var _ fetcher.Fetcher = (*MockFetcher)(nil)

// CoinGeckoServer starts an httptest server that serves the two CoinGecko
// endpoints used by the price fetchers. A nil handler answers 404.
func CoinGeckoServer(spot, history http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/simple/price" && spot != nil:
			spot(w, r)
		case r.URL.Path == "/coins/bitcoin/history" && history != nil:
			history(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
}

// JSON returns a handler that writes body with the given status.
func JSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}
