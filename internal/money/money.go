// Package money defines the supported fiat currencies and how amounts in
// them are rendered for display.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code for one of the supported fiat currencies.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	INR Currency = "INR"
)

var symbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	INR: "₹",
}

// Currencies returns the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{USD, EUR, INR}
}

// ParseCurrency normalizes s and returns the matching Currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	_, ok := symbols[c]
	return ok
}

// Lower returns the lower-case code used by the price API.
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

// Symbol returns the display symbol, or the code itself if unknown.
func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

func (c Currency) String() string {
	return string(c)
}

// FormatAmount renders v with the currency symbol, thousands separators and
// exactly two decimals, e.g. "$43,227.67". Negative amounts are rendered as
// "-$12.50". Infinities render as "$∞" and NaN as "n/a".
func FormatAmount(v float64, c Currency) string {
	switch {
	case math.IsNaN(v):
		return notANumber
	case math.IsInf(v, 1):
		return c.Symbol() + infinity
	case math.IsInf(v, -1):
		return "-" + c.Symbol() + infinity
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-" + c.Symbol() + group(d.Abs().StringFixed(2))
	}
	return c.Symbol() + group(d.StringFixed(2))
}

// FormatBTC renders a bitcoin quantity with eight decimals.
func FormatBTC(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s + " BTC"
	}
	return decimal.NewFromFloat(v).StringFixed(8) + " BTC"
}

// FormatPercent renders a percentage with two decimals and a leading "+"
// for positive values.
func FormatPercent(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		if v > 0 {
			s = "+" + s
		}
		return s + "%"
	}
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

const (
	infinity   = "∞"
	notANumber = "n/a"
)

// formatNonFinite renders NaN and the infinities, which decimal cannot
// represent.
func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return notANumber, true
	case math.IsInf(v, 1):
		return infinity, true
	case math.IsInf(v, -1):
		return "-" + infinity, true
	}
	return "", false
}

// group inserts thousands separators into the integer part of an unsigned
// fixed-point decimal string.
func group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
