// Package api exposes the return calculation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"btcreturns/internal/calculator"
	"btcreturns/internal/estimator"
	"btcreturns/internal/money"
)

// Calculator is the part of the estimator the handlers need.
type Calculator interface {
	CalculateInput(ctx context.Context, in calculator.Input) (calculator.Result, error)
	Years() []int
}

// Handler serves the calculation endpoints.
type Handler struct {
	calc Calculator
	log  *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(calc Calculator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		calc: calc,
		log:  log.With("handler", "calculate"),
	}
}

// Formatted holds display strings for a result.
type Formatted struct {
	InitialInvestment    string `json:"initialInvestment"`
	BTCPriceAtTime       string `json:"btcPriceAtTime"`
	BTCBought            string `json:"btcBought"`
	CurrentBTCPrice      string `json:"currentBtcPrice"`
	CurrentValue         string `json:"currentValue"`
	ProfitLoss           string `json:"profitLoss"`
	ProfitLossPercentage string `json:"profitLossPercentage"`
	Summary              string `json:"summary"`
}

// CalculateResponse is the body of a successful GET /api/v1/calculate.
type CalculateResponse struct {
	Data      calculator.Result `json:"data"`
	Formatted Formatted         `json:"formatted"`
}

// CurrencyOption describes one selectable currency.
type CurrencyOption struct {
	Code   money.Currency `json:"code"`
	Symbol string         `json:"symbol"`
}

// OptionsResponse lists the selectable inputs.
type OptionsResponse struct {
	Currencies []CurrencyOption `json:"currencies"`
	Years      []int            `json:"years"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleCalculate handles GET /api/v1/calculate?amount=&currency=&year=
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in, err := calculator.ParseInput(q.Get("amount"), q.Get("currency"), q.Get("year"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res, err := h.calc.CalculateInput(r.Context(), in)
	switch {
	case errors.Is(err, estimator.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, estimator.ErrUpstreamUnavailable):
		h.log.Warn("price lookup failed", "error", err, "duration", time.Since(start))
		h.writeError(w, http.StatusBadGateway, errors.New("failed to fetch bitcoin prices, please try again"))
		return
	case err != nil:
		h.log.Error("calculation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	h.writeJSON(w, http.StatusOK, CalculateResponse{
		Data:      res,
		Formatted: Format(res),
	})
}

// HandleOptions handles GET /api/v1/options
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	resp := OptionsResponse{Years: h.calc.Years()}
	for _, c := range money.Currencies() {
		resp.Currencies = append(resp.Currencies, CurrencyOption{Code: c, Symbol: c.Symbol()})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Format renders res for display.
func Format(res calculator.Result) Formatted {
	c := res.Currency
	return Formatted{
		InitialInvestment:    money.FormatAmount(res.InitialInvestment, c),
		BTCPriceAtTime:       money.FormatAmount(res.BTCPriceAtTime, c),
		BTCBought:            money.FormatBTC(res.BTCBought),
		CurrentBTCPrice:      money.FormatAmount(res.CurrentBTCPrice, c),
		CurrentValue:         money.FormatAmount(res.CurrentValue, c),
		ProfitLoss:           money.FormatAmount(res.ProfitLoss, c),
		ProfitLossPercentage: money.FormatPercent(res.ProfitLossPercentage),
		Summary: "Your " + money.FormatAmount(res.InitialInvestment, c) +
			" investment would be worth " + money.FormatAmount(res.CurrentValue, c) + " today!",
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
