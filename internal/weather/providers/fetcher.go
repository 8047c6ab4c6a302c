package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls the retry policy: MaxAttempts total tries, the first
// retry after InitialInterval and each later one Multiplier times longer.
type BackoffConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultBackoff is three attempts waiting 5s then 10s.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxAttempts:     3,
		InitialInterval: 5 * time.Second,
		Multiplier:      2,
	}
}

// Delay returns the wait before retry number n (1-based).
func (b BackoffConfig) Delay(n int) time.Duration {
	return time.Duration(float64(b.InitialInterval) * math.Pow(b.Multiplier, float64(n-1)))
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

var (
	// ErrCircuitOpen is returned without any request when the source's
	// breaker has tripped.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Fetcher performs GET requests with bounded retries and exponential backoff
// behind a circuit breaker.
type Fetcher struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewFetcher(name string, cfg HTTPClientConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	})

	return &Fetcher{
		name:    name,
		httpCfg: cfg,
		circuit: cb,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Get returns the first successful response; the caller closes its body.
// Transport errors and non-2xx statuses are retried per the backoff policy,
// and the last error is returned once attempts run out.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if f.httpCfg.Client == nil {
		return nil, errNoHTTPClient
	}
	backoff := f.httpCfg.Backoff
	if backoff.MaxAttempts < 1 || backoff.InitialInterval < 0 || backoff.Multiplier < 1 {
		return nil, errInvalidConfig
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		result, err := f.circuit.Execute(func() (interface{}, error) {
			resp, execErr := f.httpCfg.Client.Do(req)
			if execErr != nil {
				var ue *url.Error
				if errors.As(execErr, &ue) {
					ue.URL = redact(ue.URL)
				}
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				resp.Body.Close()
				return nil, &StatusError{URL: redact(rawURL), StatusCode: resp.StatusCode}
			}
			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, f.name, err)
		}

		if attempt >= backoff.MaxAttempts {
			return nil, fmt.Errorf("%s: giving up after %d attempts: %w", f.name, attempt, err)
		}

		delay := backoff.Delay(attempt)
		f.logger.Warn("fetch failed, retrying",
			"source", f.name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// Text returns the whole response body as a string.
func (f *Fetcher) Text(ctx context.Context, rawURL string) (string, error) {
	b, err := f.Bytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes returns the whole response body.
func (f *Fetcher) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading body: %w", f.name, err)
	}
	return b, nil
}

// Stream copies the response body into w without buffering it whole.
func (f *Fetcher) Stream(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%s: streaming body: %w", f.name, err)
	}
	return n, nil
}

// redact drops the query string, which may carry an API key.
func redact(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	return base
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
