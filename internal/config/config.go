package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the return calculator.
type Config struct {
	// CoinGecko price API
	CoinGeckoBaseURL      string `mapstructure:"coingecko_base_url"`
	CoinGeckoAPIKey       string `mapstructure:"coingecko_api_key"`
	CoinGeckoAPIKeyHeader string `mapstructure:"coingecko_api_key_header"`

	// Outbound HTTP behaviour
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	HTTPRetryCount int           `mapstructure:"http_retry_count"`
	UserAgent      string        `mapstructure:"user_agent"`

	// HTTP API
	ListenAddress      string   `mapstructure:"listen_address"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration from environment variables, an optional .env
// file and an optional config file. Environment variables take precedence
// over config file values. If path is empty, config.yaml is looked up in
// the working directory and $HOME/.btcreturns.
//
// Recognised environment variables:
//   - COINGECKO_BASE_URL (optional, defaults to production)
//   - COINGECKO_API_KEY (optional)
//   - COINGECKO_API_KEY_HEADER (optional, defaults to x-cg-demo-api-key)
//   - HTTP_TIMEOUT, HTTP_RETRY_COUNT, USER_AGENT
//   - LISTEN_ADDRESS, CORS_ALLOWED_ORIGINS (comma separated)
//   - LOG_LEVEL, LOG_FORMAT
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("coingecko_base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko_api_key", "")
	v.SetDefault("coingecko_api_key_header", "x-cg-demo-api-key")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("http_retry_count", 2)
	v.SetDefault("user_agent", "btcreturns/1.0")
	v.SetDefault("listen_address", ":8080")
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.btcreturns")

		// Read config file (ignore if not found)
		_ = v.ReadInConfig()
	}

	for _, key := range []string{
		"coingecko_base_url",
		"coingecko_api_key",
		"coingecko_api_key_header",
		"http_timeout",
		"http_retry_count",
		"user_agent",
		"listen_address",
		"cors_allowed_origins",
		"log_level",
		"log_format",
	} {
		v.BindEnv(key, strings.ToUpper(key))
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A single env var arrives as one comma separated element
	if len(config.CORSAllowedOrigins) == 1 && strings.Contains(config.CORSAllowedOrigins[0], ",") {
		config.CORSAllowedOrigins = splitList(config.CORSAllowedOrigins[0])
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	var invalid []string

	if u, err := url.Parse(c.CoinGeckoBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "COINGECKO_BASE_URL")
	}
	if c.HTTPTimeout <= 0 {
		invalid = append(invalid, "HTTP_TIMEOUT")
	}
	if c.HTTPRetryCount < 0 {
		invalid = append(invalid, "HTTP_RETRY_COUNT")
	}
	if c.ListenAddress == "" {
		invalid = append(invalid, "LISTEN_ADDRESS")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		invalid = append(invalid, "LOG_LEVEL")
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		invalid = append(invalid, "LOG_FORMAT")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// RetryCount converts HTTPRetryCount to the fetcher client convention, where
// zero means "use the default" and a negative value disables retries.
func (c *Config) RetryCount() int {
	if c.HTTPRetryCount == 0 {
		return -1
	}
	return c.HTTPRetryCount
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
