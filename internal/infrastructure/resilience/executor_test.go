package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestDoRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
		BreakerEnabled: false,
	})

	attempts := 0
	errTransient := errors.New("transient")
	err := exec.Do(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, func(err error) Verdict {
		return Verdict{Retryable: errors.Is(err, errTransient), CountsAsTrip: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
		BreakerEnabled: false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Do(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) Verdict {
		return Verdict{Retryable: false, CountsAsTrip: false}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	exec := NewExecutor(Policy{MaxAttempts: 3, BreakerEnabled: false})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Do(ctx, "op", func(context.Context) error {
		t.Fatal("operation must not run on a cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDoOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Policy{
		MaxAttempts:         1,
		InitialBackoff:      1 * time.Millisecond,
		MaxBackoff:          1 * time.Millisecond,
		BackoffFactor:       2,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenFor:      50 * time.Millisecond,
		BreakerProbeCalls:   1,
	})

	errVendor := errors.New("vendor down")
	classify := func(error) Verdict {
		return Verdict{Retryable: false, CountsAsTrip: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Do(context.Background(), "op", func(context.Context) error {
			return errVendor
		}, classify)
		if !errors.Is(err, errVendor) {
			t.Fatalf("expected vendor error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Do(context.Background(), "op", func(context.Context) error {
		t.Fatal("circuit should be open and must not call operation")
		return nil
	}, classify)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatal("IsCircuitOpen must report the open breaker")
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	exec := NewExecutor(Policy{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenFor:      time.Minute,
		BreakerProbeCalls:   1,
	})

	errVendor := errors.New("vendor down")
	classify := func(error) Verdict { return Verdict{CountsAsTrip: true} }

	for i := 0; i < 2; i++ {
		_ = exec.Do(context.Background(), "metadata", func(context.Context) error {
			return errVendor
		}, classify)
	}

	// "metadata" is open; "search" must still pass calls through.
	called := false
	if err := exec.Do(context.Background(), "search", func(context.Context) error {
		called = true
		return nil
	}, classify); err != nil {
		t.Fatalf("unrelated operation failed: %v", err)
	}
	if !called {
		t.Fatal("unrelated operation must not share the tripped breaker")
	}
}
