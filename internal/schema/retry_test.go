package schema

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	policy := RetryPolicy{Timeouts: []time.Duration{time.Second, time.Second}, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

func TestRetryRetriesExactlyOnce(t *testing.T) {
	policy := RetryPolicy{Timeouts: []time.Duration{time.Second, time.Second}, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("first attempt fails")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	policy := RetryPolicy{Timeouts: []time.Duration{time.Second, time.Second}, Delay: time.Millisecond}

	last := errors.New("second failure")
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("first failure")
		}
		return last
	})
	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("attempts are bounded by the timeout list, got %d", calls)
	}
}

func TestRetryAttemptTimeout(t *testing.T) {
	policy := RetryPolicy{Timeouts: []time.Duration{10 * time.Millisecond}, Delay: 0}

	err := policy.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRetryHonorsCancelBetweenAttempts(t *testing.T) {
	policy := RetryPolicy{Timeouts: []time.Duration{time.Second, time.Second}, Delay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		// Cancel while Do waits out the inter-attempt delay.
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no second attempt after cancel, got %d", calls)
	}
}
