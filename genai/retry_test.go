// ABOUTME: Tests for the retry executor.
// ABOUTME: Validates attempt accounting, backoff delay bounds, and the distinguished rate-limited terminal error.

package genai

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, JitterMax: 0}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	result, err := Retry(context.Background(), fastPolicy(3), func() (string, error) {
		calls.Add(1)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want %q", result, "ok")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryRateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	result, err := Retry(context.Background(), fastPolicy(3), func() (string, error) {
		if calls.Add(1) == 1 {
			return "", &RateLimitedError{Message: "quota"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want %q", result, "ok")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRetryExhaustsOnPersistentRateLimit(t *testing.T) {
	var calls atomic.Int32
	_, err := Retry(context.Background(), fastPolicy(3), func() (string, error) {
		calls.Add(1)
		return "", &RateLimitedError{Message: "quota"}
	})

	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want *RateLimitedError", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	boom := fmt.Errorf("malformed request")
	_, err := Retry(context.Background(), fastPolicy(3), func() (string, error) {
		calls.Add(1)
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the original error", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryDoesNotRetryCredentialErrors(t *testing.T) {
	var calls atomic.Int32
	_, err := Retry(context.Background(), fastPolicy(3), func() (string, error) {
		calls.Add(1)
		return "", &CredentialInvalidError{Message: "API key not valid"}
	})

	var ci *CredentialInvalidError
	if !errors.As(err, &ci) {
		t.Fatalf("error = %v, want *CredentialInvalidError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, JitterMax: 0}
	_, err := Retry(ctx, policy, func() (string, error) {
		return "", &RateLimitedError{Message: "quota"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDelayForAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, JitterMax: 0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.DelayForAttempt(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: delay = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelayForAttemptJitterBounds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, JitterMax: time.Second}

	for range 50 {
		delay := p.DelayForAttempt(1)
		if delay < 2*time.Second || delay >= 3*time.Second {
			t.Fatalf("delay %v outside [2s, 3s)", delay)
		}
	}
}

func TestDefaultPolicies(t *testing.T) {
	if got := DefaultRetryPolicy().MaxAttempts; got != 3 {
		t.Errorf("default MaxAttempts = %d, want 3", got)
	}
	if got := PollRetryPolicy().MaxAttempts; got != 5 {
		t.Errorf("poll MaxAttempts = %d, want 5", got)
	}
}
