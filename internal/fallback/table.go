// Package fallback holds a static table of approximate bitcoin prices on
// January 1 of each year from 2010 through 2024.
//
// The figures are rough historical approximations, not authoritative
// pricing. They are only consulted when the live price API has no data for
// the requested date.
package fallback

import (
	"sort"
	"strings"

	"btcreturns/internal/money"
)

// DefaultPrice is used when the table has no entry for the requested
// currency and year.
const DefaultPrice = 100.0

var table = map[money.Currency]map[int]float64{
	money.USD: {
		2010: 0.003, 2011: 0.30, 2012: 5.27, 2013: 13.28, 2014: 320.19,
		2015: 314.93, 2016: 998.33, 2017: 13880, 2018: 3693, 2019: 7179,
		2020: 28949, 2021: 46498, 2022: 47686, 2023: 16625, 2024: 42280,
	},
	money.EUR: {
		2010: 0.002, 2011: 0.22, 2012: 4.01, 2013: 9.98, 2014: 260.15,
		2015: 287.50, 2016: 948.75, 2017: 11662, 2018: 3244, 2019: 6441,
		2020: 23918, 2021: 38173, 2022: 43918, 2023: 15281, 2024: 38956,
	},
	money.INR: {
		2010: 0.14, 2011: 13.5, 2012: 293, 2013: 830, 2014: 19700,
		2015: 20645, 2016: 67840, 2017: 897000, 2018: 264000, 2019: 508000,
		2020: 2146000, 2021: 3457000, 2022: 3935000, 2023: 1375000, 2024: 3500000,
	},
}

// Lookup returns the table price for currency and year. The currency code
// is matched case-insensitively.
func Lookup(currency money.Currency, year int) (float64, bool) {
	years, ok := table[money.Currency(strings.ToUpper(string(currency)))]
	if !ok {
		return 0, false
	}
	p, ok := years[year]
	return p, ok
}

// Years returns the years covered for currency in ascending order.
func Years(currency money.Currency) []int {
	years := table[money.Currency(strings.ToUpper(string(currency)))]
	out := make([]int, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
