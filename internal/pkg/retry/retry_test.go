package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var errTransient = errors.New("transient error")
var errPermanent = errors.New("permanent error")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), DefaultConfig(), isTransient, nil, func() (int, error) {
		calls++
		return 42, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected result 42, got %d", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesOnTransientError(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), isTransient, nil, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected result 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_FailsImmediatelyOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), isTransient, nil, func() (int, error) {
		calls++
		return 0, errPermanent
	})

	if !errors.Is(err, errPermanent) {
		t.Errorf("expected permanent error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(2), isTransient, nil, func() (int, error) {
		calls++
		return 0, errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Errorf("expected wrapped transient error, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", calls)
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: time.Second}

	calls := 0
	_, err := Do(ctx, cfg, isTransient, func(int, error, time.Duration) { cancel() }, func() (int, error) {
		calls++
		return 0, errTransient
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("expected last error to be preserved, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_CallsOnRetry(t *testing.T) {
	var attempts []int
	_, _ = Do(context.Background(), fastConfig(2), isTransient, func(attempt int, err error, _ time.Duration) {
		if !errors.Is(err, errTransient) {
			t.Errorf("onRetry got err %v", err)
		}
		attempts = append(attempts, attempt)
	}, func() (int, error) {
		return 0, errTransient
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("onRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestDo_CapsBackoffAtMax(t *testing.T) {
	var backoffs []time.Duration
	cfg := Config{MaxRetries: 4, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffFactor: 4}
	_, _ = Do(context.Background(), cfg, isTransient, func(_ int, _ error, b time.Duration) {
		backoffs = append(backoffs, b)
	}, func() (int, error) {
		return 0, errTransient
	})

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}
	if len(backoffs) != len(want) {
		t.Fatalf("got %d backoffs, want %d", len(backoffs), len(want))
	}
	for i := range want {
		if backoffs[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, backoffs[i], want[i])
		}
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	wrapped := fmt.Errorf("decoding: %w", Permanent(errPermanent))
	if !IsPermanent(wrapped) {
		t.Error("IsPermanent should see through wrapping")
	}
	if !errors.Is(wrapped, errPermanent) {
		t.Error("Permanent should unwrap to the original error")
	}
	if NotPermanent(wrapped) {
		t.Error("NotPermanent should reject permanent errors")
	}
	if !NotPermanent(errTransient) {
		t.Error("NotPermanent should accept plain errors")
	}
	if NotPermanent(fmt.Errorf("read: %w", context.Canceled)) {
		t.Error("NotPermanent should reject cancellation")
	}
}

func TestDo_NilClassifierUsesNotPermanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), nil, nil, func() (int, error) {
		calls++
		return 0, Permanent(errPermanent)
	})
	if !errors.Is(err, errPermanent) || calls != 1 {
		t.Errorf("err = %v, calls = %d; want permanent error after 1 call", err, calls)
	}
}
