package util

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// LeveledSlog adapts a slog.Logger to the retryablehttp.LeveledLogger interface.
type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// re-writes HTTP client DEBUG to INFO level (this is where retry is logged)
func (l LeveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// RetryOptions tunes NewRetryingClient. Zero fields take the RobustHTTPClient defaults.
type RetryOptions struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
}

// NewRetryingClient returns a stdlib-compatible client backed by retryablehttp. It retries on connection errors, 5xx
// status (except 501), and 429 (respecting 'Retry-After'), logging intermediate failures at WARN level.
func NewRetryingClient(opts RetryOptions) *http.Client {
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 1 * time.Second
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledSlog{logger.With("system", "http")})
	client := retryClient.StandardClient()
	client.Timeout = opts.Timeout
	return client
}

// Generates an HTTP client with decent general-purpose defaults around timeouts and retries. This does not start from
// http.DefaultClient.
//
// Used for the scoring, classifier, and webhook clients.
func RobustHTTPClient() *http.Client {
	return NewRetryingClient(RetryOptions{})
}
