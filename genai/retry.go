// ABOUTME: Retry executor with exponential backoff and jitter for transient rate-limit errors.
// ABOUTME: Only rate-limited failures are retried; everything else propagates on the first attempt.

package genai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures the retry executor. The delay before attempt n
// (0-indexed) is BaseDelay * 2^n plus a random jitter in [0, JitterMax).
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// BaseDelay is the backoff unit. Default 1s.
	BaseDelay time.Duration

	// JitterMax bounds the random jitter added to every delay. Default 1s.
	JitterMax time.Duration
}

// DefaultRetryPolicy returns the policy for ordinary generation calls:
// 3 attempts, 1s base delay, up to 1s jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, JitterMax: time.Second}
}

// PollRetryPolicy returns the policy for long-running-operation polls, which
// tolerate more rate-limit pressure: 5 attempts.
func PollRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, JitterMax: time.Second}
}

// DelayForAttempt computes the backoff delay after a failed attempt
// (0-indexed): BaseDelay * 2^attempt + random(0, JitterMax).
func (p RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt)
	if p.JitterMax > 0 {
		delay += time.Duration(rand.Int64N(int64(p.JitterMax)))
	}
	return delay
}

// Retry executes fn until it succeeds, fails with a non-rate-limit error, or
// exhausts the attempt budget. Rate-limited failures back off exponentially
// between attempts; any other failure propagates immediately. After the final
// rate-limited attempt the error is a distinguished *RateLimitedError wrapping
// the last underlying failure, so callers can present a uniform busy message.
//
// Retry holds no state between calls and is safe to invoke concurrently from
// independent call sites.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if Classify(err) != KindRateLimited {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(policy.DelayForAttempt(attempt)):
		}
	}

	return zero, &RateLimitedError{
		Message: fmt.Sprintf("rate limited after %d attempts", attempts),
		Cause:   lastErr,
	}
}
