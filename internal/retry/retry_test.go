package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected one successful call, got result=%q calls=%d", result, calls)
	}
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	boom := errors.New("bad input")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no retries for non-retryable error, got %d calls", calls)
	}
}

func TestDo_RetriesRetryableError(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("transient: %w", ErrRateLimited)
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" || calls != 3 {
		t.Errorf("expected recovery on third call, got result=%q calls=%d", result, calls)
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 1

	calls := 0
	_, err := Do(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, ErrTimeout
	})
	if err == nil {
		t.Fatal("expected error after budget exhausted")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected wrapped ErrTimeout, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts (1 retry), got %d", calls)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, fastConfig(), func() (int, error) {
		t.Fatal("fn must not run with cancelled context")
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
}
