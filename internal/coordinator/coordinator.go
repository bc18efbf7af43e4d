package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"btcreturns/internal/fetcher"
)

// ErrNoFetchers is returned when the coordinator has nothing to run.
var ErrNoFetchers = errors.New("no fetchers configured")

// Coordinator runs a set of fetchers concurrently and joins their results
type Coordinator struct {
	fetchers []fetcher.Fetcher
	out      io.Writer
}

// New creates a new Coordinator with the given fetchers
func New(fetchers []fetcher.Fetcher) *Coordinator {
	return &Coordinator{
		fetchers: fetchers,
		out:      os.Stdout,
	}
}

// WithOutput sets where Run prints results.
func (c *Coordinator) WithOutput(w io.Writer) *Coordinator {
	c.out = w
	return c
}

// Collect executes all fetchers concurrently and waits for every one of
// them to finish. Results are returned in fetcher order. A failing fetcher
// does not cancel the others; its error is reported in its Result and the
// first such error (in fetcher order) is also returned.
func (c *Coordinator) Collect(ctx context.Context) ([]fetcher.Result, error) {
	if len(c.fetchers) == 0 {
		return nil, ErrNoFetchers
	}

	results := make([]fetcher.Result, len(c.fetchers))

	var g errgroup.Group
	for i, f := range c.fetchers {
		g.Go(func() error {
			value, err := f.Fetch(ctx)
			results[i] = fetcher.Result{
				Key:   f.Key(),
				Value: value,
				Error: err,
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Error != nil {
			return results, fmt.Errorf("%s: %w", r.Key, r.Error)
		}
	}
	return results, nil
}

// formatValue prints two decimals, or every significant digit for prices
// below one that two decimals would round away.
func formatValue(v float64) string {
	if v != 0 && math.Abs(v) < 1 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Run executes all fetchers concurrently and prints results as they arrive
// in the format:
//   - Success: "KEY: VALUE"
//   - Error: "KEY: ERROR - error message"
func (c *Coordinator) Run(ctx context.Context) error {
	if len(c.fetchers) == 0 {
		return ErrNoFetchers
	}

	// Create a channel for collecting results
	resultChan := make(chan fetcher.Result, len(c.fetchers))

	// WaitGroup to track all worker goroutines
	var wg sync.WaitGroup

	// Launch a goroutine for each fetcher
	for _, f := range c.fetchers {
		wg.Add(1)
		go func(ft fetcher.Fetcher) {
			defer wg.Done()

			value, err := ft.Fetch(ctx)

			resultChan <- fetcher.Result{
				Key:   ft.Key(),
				Value: value,
				Error: err,
			}
		}(f)
	}

	// Close the result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		if result.Error != nil {
			fmt.Fprintf(c.out, "%s: ERROR - %v\n", result.Key, result.Error)
		} else {
			fmt.Fprintf(c.out, "%s: %s\n", result.Key, formatValue(result.Value))
		}
	}

	return nil
}
