// Package calculator turns an investment amount and two bitcoin prices into
// a return estimate. Everything here is pure: no I/O and no shared state.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"btcreturns/internal/money"
)

// MinYear is the earliest year an investment can be made in.
const MinYear = 2010

var (
	// ErrInvalidInput is returned when amount, currency or year fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidPrice is returned when a price is missing, non-positive or not finite.
	ErrInvalidPrice = errors.New("invalid price")
)

// PriceSource records where the historical price came from.
type PriceSource string

const (
	SourceLive    PriceSource = "live"
	SourceTable   PriceSource = "table"
	SourceDefault PriceSource = "default"
)

// Input is a single calculation request.
type Input struct {
	Amount   float64
	Currency money.Currency
	Year     int
}

// Result is the outcome of one calculation.
type Result struct {
	InitialInvestment    float64        `json:"initialInvestment"`
	Currency             money.Currency `json:"currency"`
	Year                 int            `json:"year"`
	BTCPriceAtTime       float64        `json:"btcPriceAtTime"`
	BTCBought            float64        `json:"btcBought"`
	CurrentBTCPrice      float64        `json:"currentBtcPrice"`
	CurrentValue         float64        `json:"currentValue"`
	ProfitLoss           float64        `json:"profitLoss"`
	ProfitLossPercentage float64        `json:"profitLossPercentage"`
	HistoricalSource     PriceSource    `json:"historicalSource,omitempty"`
}

// Validate checks the input against the supported ranges, using now to
// determine the latest selectable year.
func (in Input) Validate(now time.Time) error {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return fmt.Errorf("%w: amount must be a positive number, got %v", ErrInvalidInput, in.Amount)
	}
	if !in.Currency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, in.Currency)
	}
	if maxYear := now.Year(); in.Year < MinYear || in.Year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d, got %d", ErrInvalidInput, MinYear, maxYear, in.Year)
	}
	return nil
}

// Compute derives the result from the historical and current price of one
// bitcoin in the input currency. An amount so large that the result
// overflows float64 is rejected with ErrInvalidInput.
func Compute(in Input, historical, current float64) (Result, error) {
	if !validPrice(historical) {
		return Result{}, fmt.Errorf("%w: historical price %v", ErrInvalidPrice, historical)
	}
	if !validPrice(current) {
		return Result{}, fmt.Errorf("%w: current price %v", ErrInvalidPrice, current)
	}

	btcBought := in.Amount / historical
	currentValue := btcBought * current
	profitLoss := currentValue - in.Amount
	pct := profitLoss / in.Amount * 100

	for _, v := range []float64{btcBought, currentValue, profitLoss, pct} {
		if !finite(v) {
			return Result{}, fmt.Errorf("%w: amount too large, got %v", ErrInvalidInput, in.Amount)
		}
	}

	return Result{
		InitialInvestment:    in.Amount,
		Currency:             in.Currency,
		Year:                 in.Year,
		BTCPriceAtTime:       historical,
		BTCBought:            btcBought,
		CurrentBTCPrice:      current,
		CurrentValue:         currentValue,
		ProfitLoss:           profitLoss,
		ProfitLossPercentage: pct,
	}, nil
}

// Years lists the selectable investment years, MinYear through now's year.
func Years(now time.Time) []int {
	years := make([]int, 0, now.Year()-MinYear+1)
	for y := MinYear; y <= now.Year(); y++ {
		years = append(years, y)
	}
	return years
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
