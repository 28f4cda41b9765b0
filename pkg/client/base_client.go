package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second

	backoffMultiplier = 2
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	name           string
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
	maxAttempts    int
	retryDelay     time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	Threshold      int
	BreakerTimeout time.Duration
	RateLimit      float64 // requests per second, <= 0 disables limiting
	RateBurst      int

	// HTTPClient overrides the default *http.Client built from Timeout.
	HTTPClient HTTPClient
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryDelay := config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.RateBurst
	if burst <= 0 {
		burst = 1
	}

	threshold := config.Threshold
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if threshold > 0 {
				return counts.ConsecutiveFailures >= uint32(threshold)
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		limiter:        rate.NewLimiter(limit, burst),
		maxAttempts:    maxAttempts,
		retryDelay:     retryDelay,
		sleep:          sleepContext,
	}
}

// Name identifies the upstream this client talks to.
func (c *BaseClient) Name() string {
	return c.name
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *BaseClient) BreakerState() string {
	return c.circuitBreaker.State().String()
}

// FetchWithRetry issues a GET against endpoint with the given query params.
// Only HTTP 503 is retried; every other failure is returned immediately.
func (c *BaseClient) FetchWithRetry(ctx context.Context, endpoint string, params url.Values) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic during upstream call",
				zap.String("client", c.name),
				zap.String("endpoint", endpoint),
				zap.Any("panic", r))
			body, err = nil, fmt.Errorf("%w: %v", ErrTransport, r)
		}
	}()

	target := endpoint
	if len(params) > 0 {
		target = endpoint + "?" + params.Encode()
	}

	var cancelled error
	result, execErr := c.circuitBreaker.Execute(func() (interface{}, error) {
		data, err := c.doGetWithRetry(ctx, target, endpoint)
		// A cancelled or rate limited search says nothing about upstream health.
		if err != nil && (ctx.Err() != nil || errors.Is(err, ErrRateLimited)) {
			cancelled = err
			return nil, nil
		}
		return data, err
	})

	if cancelled != nil {
		return nil, cancelled
	}

	if execErr != nil {
		if errors.Is(execErr, gobreaker.ErrOpenState) || errors.Is(execErr, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Circuit breaker rejected request",
				zap.String("client", c.name),
				zap.String("endpoint", endpoint),
				zap.Error(execErr))
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
		}
		return nil, execErr
	}

	data, _ := result.([]byte)
	return data, nil
}

// doGetWithRetry logs endpoint rather than target so API keys stay out of logs.
func (c *BaseClient) doGetWithRetry(ctx context.Context, target, endpoint string) ([]byte, error) {
	delay := c.retryDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.Warn("HTTP request failed",
				zap.String("client", c.name),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()

			if err != nil {
				return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
			}

			c.logger.Debug("Request successful",
				zap.String("client", c.name),
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("body_size", len(body)))

			return body, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusServiceUnavailable {
			c.logger.Warn("Upstream returned non-retryable status",
				zap.String("client", c.name),
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt))
			return nil, &StatusError{Code: resp.StatusCode}
		}

		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("Received 503, retrying",
			zap.String("client", c.name),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= backoffMultiplier
	}

	c.logger.Error("Max retries exceeded",
		zap.String("client", c.name),
		zap.String("endpoint", endpoint),
		zap.Int("attempts", c.maxAttempts))

	return nil, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, c.maxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
