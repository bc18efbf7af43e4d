package calculator

import (
	"fmt"
	"strconv"
	"strings"

	"btcreturns/internal/money"
)

// ParseInput builds an Input from raw form values. Empty values are
// reported together as missing information; malformed values are reported
// individually. Range checks are left to Validate.
func ParseInput(amount, currency, year string) (Input, error) {
	amount, currency, year = strings.TrimSpace(amount), strings.TrimSpace(currency), strings.TrimSpace(year)

	var missing []string
	if amount == "" {
		missing = append(missing, "amount")
	}
	if currency == "" {
		missing = append(missing, "currency")
	}
	if year == "" {
		missing = append(missing, "year")
	}
	if len(missing) > 0 {
		return Input{}, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	a, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return Input{}, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, amount)
	}
	c, err := money.ParseCurrency(currency)
	if err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Input{}, fmt.Errorf("%w: year %q is not an integer", ErrInvalidInput, year)
	}

	return Input{Amount: a, Currency: c, Year: y}, nil
}
