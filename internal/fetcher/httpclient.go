package fetcher

import (
	"log/slog"
	"net/http"
	"time"

	"resty.dev/v3"
)

const (
	// Default retry configuration
	defaultRetryCount       = 2
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
	defaultTimeout          = 10 * time.Second
)

// ClientOptions tunes the HTTP client shared by the price fetchers.
// Zero values fall back to the package defaults; a negative RetryCount
// disables retries.
type ClientOptions struct {
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	UserAgent    string
	APIKey       string
	APIKeyHeader string
}

// NewHTTPClient creates a new HTTP client with retry logic and exponential backoff
func NewHTTPClient(baseURL string, opts ClientOptions) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.RetryCount
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = defaultRetryCount
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = defaultRetryWaitTime
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.APIKey != "" && opts.APIKeyHeader != "" {
		client.SetHeader(opts.APIKeyHeader, opts.APIKey)
	}

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	switch code := r.StatusCode(); {
	case code >= 500:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		// 4xx means the request itself is wrong or the data is not there
		return false
	}
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}
