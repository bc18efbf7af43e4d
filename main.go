package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"btcreturns/internal/api"
	"btcreturns/internal/calculator"
	"btcreturns/internal/coingecko"
	"btcreturns/internal/config"
	"btcreturns/internal/coordinator"
	"btcreturns/internal/estimator"
	"btcreturns/internal/fallback"
	"btcreturns/internal/fetcher"
	"btcreturns/internal/metrics"
	"btcreturns/internal/money"
	"btcreturns/internal/pricing"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "btcreturns",
		Short:         "Estimate what a past bitcoin investment would be worth today",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		a.calculateCmd(),
		a.pricesCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return root
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (a *app) client() *coingecko.Client {
	return coingecko.NewClient(a.cfg.CoinGeckoBaseURL, fetcher.ClientOptions{
		Timeout:      a.cfg.HTTPTimeout,
		RetryCount:   a.cfg.RetryCount(),
		UserAgent:    a.cfg.UserAgent,
		APIKey:       a.cfg.CoinGeckoAPIKey,
		APIKeyHeader: a.cfg.CoinGeckoAPIKeyHeader,
	})
}

// --- Calculate Command ---

func (a *app) calculateCmd() *cobra.Command {
	var (
		amount, currency, year string
		asJSON                 bool
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the return of a bitcoin investment made on January 1 of a past year",
		Example: `  btcreturns calculate --amount 10000 --currency USD --year 2017
  btcreturns calculate --amount 500 --currency EUR --year 2020 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := calculator.ParseInput(amount, currency, year)
			if err != nil {
				return err
			}

			est := estimator.New(a.client(), estimator.WithLogger(a.logger))
			res, err := est.CalculateInput(cmd.Context(), in)
			if err != nil {
				if errors.Is(err, estimator.ErrUpstreamUnavailable) {
					return fmt.Errorf("failed to fetch bitcoin prices, please try again: %w", err)
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.CalculateResponse{Data: res, Formatted: api.Format(res)})
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "investment amount")
	cmd.Flags().StringVar(&currency, "currency", string(money.USD), "currency (USD, EUR, INR)")
	cmd.Flags().StringVar(&year, "year", "", fmt.Sprintf("investment year (%d to current year)", calculator.MinYear))
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(w io.Writer, res calculator.Result) {
	f := api.Format(res)
	label := "Profit"
	if res.ProfitLoss < 0 {
		label = "Loss"
	}

	fmt.Fprintf(w, "Investment results from %d\n", res.Year)
	fmt.Fprintln(w, "================================================")
	fmt.Fprintf(w, "Initial investment:  %s\n", f.InitialInvestment)
	fmt.Fprintf(w, "BTC bought:          %s\n", f.BTCBought)
	fmt.Fprintf(w, "BTC price (%d):    %s\n", res.Year, f.BTCPriceAtTime)
	fmt.Fprintf(w, "Current BTC price:   %s\n", f.CurrentBTCPrice)
	fmt.Fprintf(w, "Current value:       %s\n", f.CurrentValue)
	fmt.Fprintf(w, "%-21s%s (%s)\n", label+":", money.FormatAmount(abs(res.ProfitLoss), res.Currency), f.ProfitLossPercentage)
	if res.HistoricalSource != calculator.SourceLive {
		fmt.Fprintf(w, "Note: the %d price is an approximation (%s)\n", res.Year, res.HistoricalSource)
	}
	fmt.Fprintln(w, "================================================")
	fmt.Fprintln(w, f.Summary)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// --- Prices Command ---

func (a *app) pricesCmd() *cobra.Command {
	var (
		currency string
		year     int
	)

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch the current and historical bitcoin price and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := money.ParseCurrency(currency)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			return runPrices(ctx, cmd.OutOrStdout(), a.client(), c, year, time.Now(), a.logger)
		},
	}

	cmd.Flags().StringVar(&currency, "currency", string(money.USD), "currency (USD, EUR, INR)")
	cmd.Flags().IntVar(&year, "year", 0, "also fetch the price on January 1 of this year")
	return cmd
}

// runPrices prints the current price and, when year is set, the resolved
// January 1 price of year along with the years the fallback table covers.
func runPrices(ctx context.Context, out io.Writer, client *coingecko.Client, c money.Currency, year int, now time.Time, logger *slog.Logger) error {
	fetchers := []fetcher.Fetcher{client.Current(c)}
	if year != 0 {
		if year < calculator.MinYear || year > now.Year() {
			return fmt.Errorf("%w: year must be between %d and %d, got %d",
				calculator.ErrInvalidInput, calculator.MinYear, now.Year(), year)
		}
		fetchers = append(fetchers, pricing.NewFallbackFetcher(client.Historical(c, year), c, year, logger))
	}

	if err := coordinator.New(fetchers).WithOutput(out).Run(ctx); err != nil {
		return err
	}

	if year != 0 {
		if covered := fallback.Years(c); len(covered) > 0 {
			fmt.Fprintf(out, "fallback table for %s covers %d-%d, default %s otherwise\n",
				c, covered[0], covered[len(covered)-1], money.FormatAmount(fallback.DefaultPrice, c))
		}
	}
	return nil
}

// --- Serve Command ---

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator as a JSON HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			est := estimator.New(a.client(),
				estimator.WithLogger(a.logger),
				estimator.WithMetrics(metrics.New(reg)),
			)
			srv := api.NewServer(api.Config{
				ListenAddress:  a.cfg.ListenAddress,
				AllowedOrigins: a.cfg.CORSAllowedOrigins,
				Gatherer:       reg,
				Log:            a.logger,
			}, api.NewHandler(est, a.logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// --- Version Command ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "btcreturns %s (commit %s)\n", version, commit)
		},
	}
}
