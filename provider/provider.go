package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Completer is the boundary to the external completion service. Every
// generation step in the pipeline (compression, merge, repair, query
// rewriting, answer generation) is a call of this shape.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request carries a single prompt plus sampling constraints.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// ErrorKind classifies provider failures for the caller.
type ErrorKind string

const (
	Unauthorized ErrorKind = "unauthorized"
	RateLimited  ErrorKind = "rate_limited"
	Unreachable  ErrorKind = "unreachable"
)

// Error is the typed failure surfaced by provider implementations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("provider %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the provider error kind, or "" when err is not a provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// RetryPolicy bounds retries around a provider call site. Attempts beyond
// the first back off exponentially. Unauthorized is never retried: a bad
// credential does not heal between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn up to MaxAttempts times, sleeping Backoff*2^n between attempts.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if KindOf(lastErr) == Unauthorized {
			return lastErr
		}
	}
	return lastErr
}
