// Package metrics exposes Prometheus collectors for return calculations and
// the price lookups behind them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"btcreturns/internal/fetcher"
)

// Outcome labels for calculations and fetches.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid_input"
	OutcomeUpstream = "upstream_unavailable"
	OutcomeError    = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	calculations     *prometheus.CounterVec
	calcDuration     prometheus.Histogram
	fetches          *prometheus.CounterVec
	historicalSource *prometheus.CounterVec
	currentPrice     *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.calculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcreturns",
		Name:      "calculations_total",
		Help:      "Number of return calculations by currency and outcome",
	}, []string{"currency", "outcome"})
	m.calcDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "btcreturns",
		Name:      "calculation_duration_seconds",
		Help:      "Time spent on a return calculation including both price lookups",
		Buckets:   prometheus.DefBuckets,
	})
	m.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcreturns",
		Name:      "price_fetches_total",
		Help:      "Number of price lookups by kind and status",
	}, []string{"kind", "status"})
	m.historicalSource = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcreturns",
		Name:      "historical_price_source_total",
		Help:      "Where historical prices were resolved from (live, table, default)",
	}, []string{"currency", "source"})
	m.currentPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "btc",
		Name:      "price",
		Help:      "Last observed price of 1 BTC by currency",
	}, []string{"currency"})

	reg.MustRegister(
		m.calculations, m.calcDuration, m.fetches,
		m.historicalSource, m.currentPrice,
	)
	return m
}

// ObserveCalculation records the outcome and duration of one calculation.
func (m *Metrics) ObserveCalculation(currency, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(currency, outcome).Inc()
	m.calcDuration.Observe(d.Seconds())
}

// fetchStatuses are the FetchError types reported as their own status label.
var fetchStatuses = []fetcher.ErrorType{
	fetcher.ErrorTypeTimeout,
	fetcher.ErrorTypeRateLimit,
	fetcher.ErrorTypeServer,
	fetcher.ErrorTypeClient,
	fetcher.ErrorTypeNetwork,
	fetcher.ErrorTypeValidation,
}

// ObserveFetch records a single price lookup. Failures are labelled with
// their fetch error type, or "error" when err is not a FetchError.
func (m *Metrics) ObserveFetch(kind string, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(kind, fetchStatus(err)).Inc()
}

func fetchStatus(err error) string {
	if err == nil {
		return OutcomeOK
	}
	for _, t := range fetchStatuses {
		if fetcher.IsType(err, t) {
			return string(t)
		}
	}
	return OutcomeError
}

// ObserveHistoricalSource records where a historical price came from.
func (m *Metrics) ObserveHistoricalSource(currency, source string) {
	if m == nil {
		return
	}
	m.historicalSource.WithLabelValues(currency, source).Inc()
}

// SetCurrentPrice records the latest live price for currency.
func (m *Metrics) SetCurrentPrice(currency string, price float64) {
	if m == nil {
		return
	}
	m.currentPrice.WithLabelValues(currency).Set(price)
}
