package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyStopsAfterSuccess(t *testing.T) {
	t.Parallel()
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &Error{Kind: RateLimited}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	p := RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: Unreachable, Message: "down"}
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if KindOf(err) != Unreachable {
		t.Fatalf("expected unreachable, got %v", err)
	}
}

func TestRetryPolicyNeverRetriesUnauthorized(t *testing.T) {
	t.Parallel()
	calls := 0
	p := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: Unauthorized}
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if KindOf(err) != Unauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Hour}
	err := p.Do(ctx, func(ctx context.Context) error {
		cancel()
		return &Error{Kind: Unreachable}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestKindOfWrappedError(t *testing.T) {
	t.Parallel()
	inner := &Error{Kind: RateLimited, Message: "quota"}
	wrapped := errors.Join(errors.New("call site"), inner)
	if KindOf(wrapped) != RateLimited {
		t.Fatalf("expected rate_limited through wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors must not classify")
	}
}
