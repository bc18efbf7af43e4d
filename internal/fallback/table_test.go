package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcreturns/internal/money"
)

func TestLookup_KnownEntries(t *testing.T) {
	tests := []struct {
		currency money.Currency
		year     int
		want     float64
	}{
		{money.USD, 2017, 13880},
		{money.EUR, 2020, 23918},
		{money.INR, 2024, 3500000},
		{money.USD, 2010, 0.003},
		{"usd", 2017, 13880},
	}

	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			got, ok := Lookup(tt.currency, tt.year)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_Missing(t *testing.T) {
	_, ok := Lookup("XYZ-not-a-year", 1999)
	assert.False(t, ok)

	_, ok = Lookup(money.USD, 2025)
	assert.False(t, ok)
}

func TestDefaultPrice(t *testing.T) {
	assert.Equal(t, 100.0, DefaultPrice)
}

func TestTable_CoversEveryCurrencyAndYear(t *testing.T) {
	for _, c := range money.Currencies() {
		years := Years(c)
		require.Len(t, years, 15, "currency %s", c)
		assert.Equal(t, 2010, years[0])
		assert.Equal(t, 2024, years[len(years)-1])
		for _, y := range years {
			p, _ := Lookup(c, y)
			assert.Greater(t, p, 0.0, "%s %d", c, y)
		}
	}
}
