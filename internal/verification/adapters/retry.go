package adapters

import (
	"context"
	"math/rand"
	"time"

	"vouch/internal/company"
	"vouch/internal/verification/models"
)

// RetryConfig tunes transient-failure retries around an adapter.
type RetryConfig struct {
	// Attempts is the total evaluation budget, including the first try.
	Attempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// Multiplier grows the backoff between retries.
	Multiplier float64

	// JitterFraction randomizes each wait by ±fraction to avoid thundering herds.
	JitterFraction float64
}

// DefaultRetryConfig returns the retry tuning used for network-backed sources.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:       3,
		InitialBackoff: 200 * time.Millisecond,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// Retrying decorates an Adapter with retry-on-transient-failure behavior.
// Non-retryable errors pass through immediately. The attempt count is
// stamped onto the returned result.
type Retrying struct {
	inner Adapter
	cfg   RetryConfig
}

// WithRetry wraps inner with the given retry configuration.
func WithRetry(inner Adapter, cfg RetryConfig) *Retrying {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &Retrying{inner: inner, cfg: cfg}
}

func (r *Retrying) Category() models.SourceCategory   { return r.inner.Category() }
func (r *Retrying) Applicable(c company.Company) bool { return r.inner.Applicable(c) }

// Evaluate runs the wrapped adapter, retrying transient failures with
// exponential backoff until the attempt budget or the context runs out.
func (r *Retrying) Evaluate(ctx context.Context, c company.Company) (models.SourceResult, error) {
	backoff := r.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		result, err := r.inner.Evaluate(ctx, c)
		if err == nil {
			result.Attempts = attempt
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.cfg.Attempts {
			break
		}
		if waitErr := sleepContext(ctx, jittered(backoff, r.cfg.JitterFraction)); waitErr != nil {
			return models.SourceResult{}, lastErr
		}
		backoff = time.Duration(float64(backoff) * r.cfg.Multiplier)
	}
	return models.SourceResult{}, lastErr
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * fraction * float64(d)
	return time.Duration(float64(d) + delta)
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
