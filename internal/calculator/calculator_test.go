package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcreturns/internal/money"
)

var now = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"valid", Input{Amount: 100, Currency: money.USD, Year: 2017}, false},
		{"min year", Input{Amount: 1, Currency: money.EUR, Year: 2010}, false},
		{"current year", Input{Amount: 1, Currency: money.INR, Year: 2026}, false},
		{"year before range", Input{Amount: 1, Currency: money.USD, Year: 2009}, true},
		{"year after range", Input{Amount: 1, Currency: money.USD, Year: 2027}, true},
		{"zero amount", Input{Amount: 0, Currency: money.USD, Year: 2017}, true},
		{"negative amount", Input{Amount: -5, Currency: money.USD, Year: 2017}, true},
		{"NaN amount", Input{Amount: math.NaN(), Currency: money.USD, Year: 2017}, true},
		{"infinite amount", Input{Amount: math.Inf(1), Currency: money.USD, Year: 2017}, true},
		{"unsupported currency", Input{Amount: 1, Currency: "GBP", Year: 2017}, true},
		{"empty currency", Input{Amount: 1, Year: 2017}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(now)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput), "error %v should wrap ErrInvalidInput", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompute_Scenario(t *testing.T) {
	in := Input{Amount: 10000, Currency: money.USD, Year: 2017}

	res, err := Compute(in, 13880, 60000)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, res.InitialInvestment)
	assert.Equal(t, money.USD, res.Currency)
	assert.Equal(t, 2017, res.Year)
	assert.Equal(t, 13880.0, res.BTCPriceAtTime)
	assert.Equal(t, 60000.0, res.CurrentBTCPrice)
	assert.InEpsilon(t, 0.7204610951, res.BTCBought, 1e-6)
	assert.InEpsilon(t, 43227.665706, res.CurrentValue, 1e-6)
	assert.InEpsilon(t, 33227.665706, res.ProfitLoss, 1e-6)
	assert.InEpsilon(t, 332.27665706, res.ProfitLossPercentage, 1e-6)
}

func TestCompute_Identities(t *testing.T) {
	tests := []struct {
		amount, historical, current float64
	}{
		{10000, 13880, 60000},
		{250, 0.003, 95000},
		{5000, 47686, 16625},
		{1, 100, 100},
		{123456.78, 3500000, 1375000},
	}

	for _, tt := range tests {
		in := Input{Amount: tt.amount, Currency: money.USD, Year: 2020}
		res, err := Compute(in, tt.historical, tt.current)
		require.NoError(t, err)

		assert.InEpsilon(t, tt.amount*tt.current/tt.historical, res.CurrentValue, 1e-9)
		assert.InDelta(t, res.CurrentValue-tt.amount, res.ProfitLoss, 1e-9*math.Max(1, res.CurrentValue))
		assert.InDelta(t, res.ProfitLoss/tt.amount*100, res.ProfitLossPercentage, 1e-9)

		switch {
		case res.ProfitLoss > 0:
			assert.Greater(t, res.ProfitLossPercentage, 0.0)
		case res.ProfitLoss < 0:
			assert.Less(t, res.ProfitLossPercentage, 0.0)
		default:
			assert.Zero(t, res.ProfitLossPercentage)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{Amount: 777.77, Currency: money.EUR, Year: 2019}

	a, err := Compute(in, 6441, 58000.5)
	require.NoError(t, err)
	b, err := Compute(in, 6441, 58000.5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, math.Float64bits(a.CurrentValue), math.Float64bits(b.CurrentValue))
}

func TestCompute_InvalidPrices(t *testing.T) {
	in := Input{Amount: 100, Currency: money.USD, Year: 2017}

	tests := []struct {
		name                string
		historical, current float64
	}{
		{"zero historical", 0, 100},
		{"negative historical", -1, 100},
		{"zero current", 100, 0},
		{"NaN current", 100, math.NaN()},
		{"infinite historical", math.Inf(1), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(in, tt.historical, tt.current)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestCompute_AmountTooLarge(t *testing.T) {
	in := Input{Amount: 1e308, Currency: money.USD, Year: 2010}
	require.NoError(t, in.Validate(now))

	res, err := Compute(in, 0.003, 60000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrInvalidPrice)
	assert.Contains(t, err.Error(), "amount too large")
	assert.Equal(t, Result{}, res)
}

func TestCompute_LargeFiniteAmount(t *testing.T) {
	res, err := Compute(Input{Amount: 1e300, Currency: money.USD, Year: 2017}, 13880, 60000)
	require.NoError(t, err)
	assert.False(t, math.IsInf(res.CurrentValue, 0))
}

func TestYears(t *testing.T) {
	years := Years(now)
	require.Len(t, years, 17)
	assert.Equal(t, 2010, years[0])
	assert.Equal(t, 2026, years[len(years)-1])
}
