package coordinator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"btcreturns/internal/fetcher"
	"btcreturns/internal/testutil"
)

func TestNew(t *testing.T) {
	fetchers := []fetcher.Fetcher{
		testutil.NewMockFetcher("test:key1", 100.0, nil),
		testutil.NewMockFetcher("test:key2", 200.0, nil),
	}

	coord := New(fetchers)
	if coord == nil {
		t.Fatal("New() returned nil")
	}

	if len(coord.fetchers) != len(fetchers) {
		t.Errorf("New() created coordinator with %d fetchers, want %d", len(coord.fetchers), len(fetchers))
	}
}

func TestCollect_Success(t *testing.T) {
	fetchers := []fetcher.Fetcher{
		testutil.NewMockFetcher("fetcher:coingecko:btc_usd", 60000, nil),
		testutil.NewMockFetcher("fetcher:coingecko:btc_usd:2017-01-01", 13880, nil),
	}

	results, err := New(fetchers).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() returned unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Collect() returned %d results, want 2", len(results))
	}
	if results[0].Key != "fetcher:coingecko:btc_usd" || results[0].Value != 60000 {
		t.Errorf("results[0] = %+v, want spot price 60000", results[0])
	}
	if results[1].Key != "fetcher:coingecko:btc_usd:2017-01-01" || results[1].Value != 13880 {
		t.Errorf("results[1] = %+v, want historical price 13880", results[1])
	}
}

func TestCollect_FailureWaitsForAll(t *testing.T) {
	testErr := errors.New("upstream down")
	var slowFinished atomic.Bool

	failing := testutil.NewMockFetcher("test:failing", 0, testErr)
	slow := &testutil.MockFetcher{
		FetchFunc: func(ctx context.Context) (float64, error) {
			time.Sleep(50 * time.Millisecond)
			slowFinished.Store(true)
			return 42, nil
		},
		KeyFunc: func() string { return "test:slow" },
	}

	results, err := New([]fetcher.Fetcher{failing, slow}).Collect(context.Background())
	if err == nil {
		t.Fatal("Collect() expected error, got nil")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Collect() error = %v, want wrapping %v", err, testErr)
	}
	if !strings.Contains(err.Error(), "test:failing") {
		t.Errorf("Collect() error = %q, want it to name the failing key", err.Error())
	}
	if !slowFinished.Load() {
		t.Error("Collect() returned before the slow fetcher completed")
	}
	if results[1].Value != 42 || results[1].Error != nil {
		t.Errorf("results[1] = %+v, want value 42 and no error", results[1])
	}
}

func TestCollect_NoFetchers(t *testing.T) {
	_, err := New(nil).Collect(context.Background())
	if !errors.Is(err, ErrNoFetchers) {
		t.Errorf("Collect() error = %v, want %v", err, ErrNoFetchers)
	}
}

func TestCollect_ConcurrentExecution(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	blocking := func(key string) *testutil.MockFetcher {
		return &testutil.MockFetcher{
			FetchFunc: func(ctx context.Context) (float64, error) {
				started <- struct{}{}
				<-release
				return 1, nil
			},
			KeyFunc: func() string { return key },
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := New([]fetcher.Fetcher{blocking("a"), blocking("b")}).Collect(context.Background())
		done <- err
	}()

	// Both fetchers must be in flight at the same time.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("fetchers did not start concurrently")
		}
	}
	close(release)

	if err := <-done; err != nil {
		t.Errorf("Collect() returned unexpected error: %v", err)
	}
}

func TestRun_PrintsResults(t *testing.T) {
	fetchers := []fetcher.Fetcher{
		testutil.NewMockFetcher("test:key1", 100.50, nil),
		testutil.NewMockFetcher("test:key2", 0, errors.New("fetch failed")),
	}

	var buf bytes.Buffer
	if err := New(fetchers).WithOutput(&buf).Run(context.Background()); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "test:key1: 100.50\n") {
		t.Errorf("Run() output missing success line: %q", out)
	}
	if !strings.Contains(out, "test:key2: ERROR - fetch failed\n") {
		t.Errorf("Run() output missing error line: %q", out)
	}
}

func TestRun_SmallPricesKeepSignificantDigits(t *testing.T) {
	fetchers := []fetcher.Fetcher{
		testutil.NewMockFetcher("fetcher:coingecko:btc_usd:2010-01-01", 0.003, nil),
	}

	var buf bytes.Buffer
	if err := New(fetchers).WithOutput(&buf).Run(context.Background()); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if got, want := buf.String(), "fetcher:coingecko:btc_usd:2010-01-01: 0.003\n"; got != want {
		t.Errorf("Run() output = %q, want %q", got, want)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{60000, "60000.00"},
		{100.5, "100.50"},
		{0.003, "0.003"},
		{0, "0.00"},
		{-0.25, "-0.25"},
	}

	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRun_NoFetchers(t *testing.T) {
	coord := New([]fetcher.Fetcher{})

	err := coord.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error for no fetchers, got nil")
	}

	expectedErrMsg := "no fetchers configured"
	if err.Error() != expectedErrMsg {
		t.Errorf("Run() error = %q, want %q", err.Error(), expectedErrMsg)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	slowFetcher := &testutil.MockFetcher{
		FetchFunc: func(ctx context.Context) (float64, error) {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(5 * time.Second):
				return 100.0, nil
			}
		},
		KeyFunc: func() string {
			return "test:slow"
		},
	}

	var buf bytes.Buffer
	coord := New([]fetcher.Fetcher{slowFetcher}).WithOutput(&buf)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The fetcher reports the context error; Run itself still succeeds
	if err := coord.Run(ctx); err != nil {
		t.Errorf("Run() returned unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "test:slow: ERROR") {
		t.Errorf("Run() output = %q, want an error line for test:slow", buf.String())
	}
}
