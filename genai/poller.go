// ABOUTME: Poll loop for asynchronous generation jobs (submit, then poll until terminal).
// ABOUTME: Applies retry semantics to both submission and polls, with a wall-clock ceiling on the loop.

package genai

import (
	"context"
	"time"
)

// Operation is the handle for a long-running generation job. Created by the
// submission call, replaced wholesale by each poll, terminal once Done is set.
type Operation struct {
	Name      string
	Done      bool
	ResultURI string
	Err       *OperationError
}

// OperationError is the service-reported failure of a long-running job.
type OperationError struct {
	Code    int
	Message string
}

// PollerConfig configures the poll loop.
type PollerConfig struct {
	// Interval is the fixed wait between polls. Default 10s.
	Interval time.Duration

	// MaxWait bounds the total wall-clock time spent waiting for the job to
	// reach a terminal state. Zero means no ceiling. Default 10m.
	MaxWait time.Duration

	// SubmitRetry and PollRetry wrap the submission and poll calls.
	SubmitRetry RetryPolicy
	PollRetry   RetryPolicy
}

// DefaultPollerConfig returns the baseline poller configuration: 10 second
// interval, 10 minute ceiling, 3 submit attempts, 5 poll attempts.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    10 * time.Second,
		MaxWait:     10 * time.Minute,
		SubmitRetry: DefaultRetryPolicy(),
		PollRetry:   PollRetryPolicy(),
	}
}

// PollUntilDone submits a job and polls it to a terminal state. On a terminal
// error it fails with *GenerationFailedError carrying the service message; on
// a terminal state with no extractable payload it fails with
// *MissingResultError; past the wall-clock ceiling it fails with
// *PollTimeoutError. Otherwise it returns the result descriptor (a fetchable
// URI) for the caller to download.
func PollUntilDone(ctx context.Context, cfg PollerConfig, submit func(ctx context.Context) (Operation, error), poll func(ctx context.Context, op Operation) (Operation, error)) (string, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	op, err := Retry(ctx, cfg.SubmitRetry, func() (Operation, error) {
		return submit(ctx)
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	for !op.Done {
		if cfg.MaxWait > 0 && time.Since(start) >= cfg.MaxWait {
			return "", &PollTimeoutError{Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		current := op
		op, err = Retry(ctx, cfg.PollRetry, func() (Operation, error) {
			return poll(ctx, current)
		})
		if err != nil {
			return "", err
		}
	}

	if op.Err != nil {
		return "", &GenerationFailedError{Message: op.Err.Message}
	}
	if op.ResultURI == "" {
		return "", &MissingResultError{}
	}
	return op.ResultURI, nil
}
