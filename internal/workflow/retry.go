package workflow

import (
	"context"
	"time"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 300 * time.Millisecond
)

// RetryPolicy bounds the attempts of one logical collaborator call.
type RetryPolicy struct {
	MaxAttempts int
	// Delay is the fixed pause between attempts; zero retries immediately.
	Delay time.Duration
}

type retryingDecider struct {
	base   decision.Collaborator
	policy RetryPolicy
}

// WithRetry wraps base so that timeouts and 5xx-class failures are retried up to
// policy.MaxAttempts times in total. Rejections are returned immediately.
func WithRetry(base decision.Collaborator, policy RetryPolicy) decision.Collaborator {
	if base == nil {
		return nil
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	return retryingDecider{base: base, policy: policy}
}

func (r retryingDecider) Decide(ctx context.Context, inputs []decision.Answers) ([]decision.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		results, err := r.base.Decide(ctx, inputs)
		if err == nil {
			metrics.ObserveAttempt("ok")
			return results, nil
		}
		lastErr = err
		if !decision.IsRetryable(err) {
			metrics.ObserveAttempt("terminal")
			return nil, err
		}
		metrics.ObserveAttempt("retryable")
		if attempt == r.policy.MaxAttempts || ctx.Err() != nil {
			break
		}

		telemetry.Warn("decision.retry", map[string]any{
			"attempt":      attempt,
			"max_attempts": r.policy.MaxAttempts,
			"delay_ms":     r.policy.Delay.Milliseconds(),
			"error":        err,
		})
		if r.policy.Delay > 0 {
			timer := time.NewTimer(r.policy.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}
