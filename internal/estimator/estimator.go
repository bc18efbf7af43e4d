// Package estimator runs a complete return calculation: validate the input,
// fetch the current and historical prices concurrently, then compute.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"btcreturns/internal/calculator"
	"btcreturns/internal/coordinator"
	"btcreturns/internal/fetcher"
	"btcreturns/internal/metrics"
	"btcreturns/internal/money"
	"btcreturns/internal/pricing"
)

// ErrUpstreamUnavailable is returned when a price could not be obtained from
// the price API. It is never returned together with a result.
var ErrUpstreamUnavailable = errors.New("upstream price source unavailable")

// ErrInvalidInput is an alias of calculator.ErrInvalidInput for callers that
// only import this package.
var ErrInvalidInput = calculator.ErrInvalidInput

// Fetchers builds the per-request price fetchers.
type Fetchers interface {
	Current(currency money.Currency) fetcher.Fetcher
	Historical(currency money.Currency, year int) fetcher.Fetcher
}

// Estimator calculates investment returns. It holds no per-request state and
// is safe for concurrent use.
type Estimator struct {
	fetchers     Fetchers
	logger       *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
	onTransition TransitionFunc
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) { e.logger = l }
}

// WithMetrics records calculation and fetch metrics to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Estimator) { e.metrics = m }
}

// WithClock overrides the clock used to determine the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithTransitionHook is called on every lifecycle state change.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(e *Estimator) { e.onTransition = fn }
}

// New creates an Estimator that obtains prices through f.
func New(f Fetchers, opts ...Option) *Estimator {
	e := &Estimator{
		fetchers: f,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Years returns the selectable investment years as of now.
func (e *Estimator) Years() []int {
	return calculator.Years(e.now())
}

// Calculate estimates what amount invested in bitcoin on January 1 of year
// would be worth today. It fails with ErrInvalidInput before any network
// call when the input is out of range, and with ErrUpstreamUnavailable when
// either price lookup fails.
func (e *Estimator) Calculate(ctx context.Context, amount float64, currency money.Currency, year int) (calculator.Result, error) {
	return e.CalculateInput(ctx, calculator.Input{Amount: amount, Currency: currency, Year: year})
}

// CalculateInput is Calculate for a prepared Input.
func (e *Estimator) CalculateInput(ctx context.Context, in calculator.Input) (calculator.Result, error) {
	start := time.Now()
	logger := e.logger.With("currency", in.Currency.String(), "year", in.Year)
	req := newRequest(func(from, to State) {
		logger.Debug("calculation state changed", "from", string(from), "to", string(to))
		if e.onTransition != nil {
			e.onTransition(from, to)
		}
	})

	res, err := e.run(ctx, req, in, logger)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrInvalidInput):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, ErrUpstreamUnavailable):
		outcome = metrics.OutcomeUpstream
	case err != nil:
		outcome = metrics.OutcomeError
	}
	e.metrics.ObserveCalculation(in.Currency.String(), outcome, time.Since(start))

	if err != nil {
		logger.Warn("calculation failed", "state", string(req.State()), "error", err)
		return calculator.Result{}, err
	}

	logger.Info("calculation complete",
		"amount", res.InitialInvestment,
		"current_value", res.CurrentValue,
		"profit_loss_pct", res.ProfitLossPercentage,
		"historical_source", string(res.HistoricalSource),
		"duration", time.Since(start))
	return res, nil
}

func (e *Estimator) run(ctx context.Context, req *request, in calculator.Input, logger *slog.Logger) (calculator.Result, error) {
	fail := func(err error) (calculator.Result, error) {
		if terr := req.to(StateFailed); terr != nil {
			return calculator.Result{}, errors.Join(err, terr)
		}
		return calculator.Result{}, err
	}

	if err := req.to(StateValidating); err != nil {
		return calculator.Result{}, err
	}
	if err := in.Validate(e.now()); err != nil {
		return fail(err)
	}

	if err := req.to(StateFetching); err != nil {
		return fail(err)
	}
	spot := e.fetchers.Current(in.Currency)
	historical := pricing.NewFallbackFetcher(e.fetchers.Historical(in.Currency, in.Year), in.Currency, in.Year, logger)

	results, err := coordinator.New([]fetcher.Fetcher{spot, historical}).Collect(ctx)
	if len(results) == 2 {
		e.metrics.ObserveFetch("current", results[0].Error)
		e.metrics.ObserveFetch("historical", results[1].Error)
	}
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}
	current, hist := results[0].Value, results[1].Value

	if err := req.to(StateComputing); err != nil {
		return fail(err)
	}
	res, err := calculator.Compute(in, hist, current)
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fail(err)
	case err != nil:
		// A non-positive price is a failed lookup, not a valid result
		return fail(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}
	res.HistoricalSource = historical.Source()

	e.metrics.SetCurrentPrice(in.Currency.String(), current)
	e.metrics.ObserveHistoricalSource(in.Currency.String(), string(res.HistoricalSource))

	if err := req.to(StateDone); err != nil {
		return calculator.Result{}, err
	}
	return res, nil
}
