package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	upstreamRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_upstream_retries_total",
		Help: "Total number of upstream retry attempts by error class",
	}, []string{"error_class"})

	upstreamRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapi_upstream_retry_backoff_seconds",
		Help:    "Backoff duration waited before an upstream retry",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16},
	})

	upstreamRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_upstream_retry_exhausted_total",
		Help: "Total number of times upstream retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the wait exponentially per attempt.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: 3 attempts,
// waiting 1s then 2s between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Backoff returns the wait after the attempt with the given zero-based index:
// InitialBackoff * BackoffMultiplier^attempt.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	return time.Duration(float64(c.InitialBackoff) * math.Pow(c.BackoffMultiplier, float64(attempt)))
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// contextSleep is the production SleepFunc.
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryWithBackoff runs fn until it succeeds, returns a non-retriable error,
// or the attempts are exhausted. fn receives the zero-based attempt index.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, sleep SleepFunc, logger zerolog.Logger, fn func(attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		class := errorClass(err)

		// No wait after the last attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		backoff := cfg.Backoff(attempt)
		upstreamRetriesTotal.WithLabelValues(class).Inc()
		upstreamRetryBackoffSeconds.Observe(backoff.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", class).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := sleep(ctx, backoff); err != nil {
			logger.Warn().
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}
	}

	class := errorClass(lastErr)
	upstreamRetryExhaustedTotal.WithLabelValues(class).Inc()
	logger.Error().
		Err(lastErr).
		Str("error_class", class).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}

func errorClass(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Class()
	}
	return string(KindOther)
}
