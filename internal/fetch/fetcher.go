package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podbook/internal/fileutil"
)

const (
	defaultTimeout       = 5 * time.Minute
	defaultRetryAttempts = 5
	defaultRetryBase     = 1 * time.Second
	defaultRetryMax      = 30 * time.Second
)

// Config captures the runtime settings for the fetcher.
type Config struct {
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	Timeout     time.Duration
	UserAgent   string
}

// Client downloads binary resources with bounded retry and atomic writes.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a fetcher using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRetryAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultRetryMax
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Error describes a failed download after all applicable attempts.
type Error struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: http %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

type httpStatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// Fetch streams the resource at rawURL into dest. The write is atomic: dest
// either appears complete or not at all, so an interrupted run can never leave
// a truncated file that looks finished. Transient failures (408, 429, 5xx,
// connection errors) are retried with exponential backoff up to the configured
// attempt budget; anything else fails fast.
func (c *Client) Fetch(ctx context.Context, rawURL, dest string) (int64, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return 0, &Error{URL: rawURL, Attempts: 0, Err: err}
	}

	attempts := c.cfg.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		written, err := c.fetchOnce(ctx, rawURL, dest)
		if err == nil {
			return written, nil
		}
		lastErr = err

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return 0, c.wrapFailure(rawURL, attempt, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return 0, c.wrapFailure(rawURL, attempt, err)
		}
	}
	return 0, c.wrapFailure(rawURL, attempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused across retries.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return 0, &httpStatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	var written int64
	err = fileutil.WriteAtomic(dest, func(w io.Writer) error {
		n, copyErr := io.Copy(w, resp.Body)
		written = n
		return copyErr
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (c *Client) wrapFailure(rawURL string, attempts int, err error) error {
	fetchErr := &Error{URL: rawURL, Attempts: attempts, Err: err}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		fetchErr.StatusCode = statusErr.StatusCode
	}
	return fetchErr
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.backoffDelay(attempt), true
	}

	// io.Copy failures mid-body surface as plain errors; treat them as
	// connection-level and retry.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles the base delay per retry: attempt 1 waits base,
// attempt 2 waits base*2, and so on, capped at the configured ceiling.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.cfg.RetryBase
	for i := 1; i < attempt; i++ {
		if delay > c.cfg.RetryMax/2 {
			return c.cfg.RetryMax
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > c.cfg.RetryMax {
		return c.cfg.RetryMax
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if until := time.Until(at); until > 0 {
			return until
		}
	}
	return 0
}
