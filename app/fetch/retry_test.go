package fetch

import (
	"context"
	"testing"
	"time"
)

var fastRetry = retryConfig{
	MaxAttempts: 3,
	InitialWait: time.Millisecond,
	MaxWait:     2 * time.Millisecond,
	Multiplier:  2.0,
}

func TestRetryDoRetriesTransient(t *testing.T) {
	attempts := 0
	result, err := retryDo(context.Background(), fastRetry, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", newError(KindTransient, "flaky")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("retryDo returned error: %v", err)
	}
	if result != "ok" || attempts != 3 {
		t.Errorf("result=%q attempts=%d, want ok after 3 attempts", result, attempts)
	}
}

func TestRetryDoGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := retryDo(context.Background(), fastRetry, func() (string, error) {
		attempts++
		return "", newError(KindTransient, "still flaky")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != fastRetry.MaxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, fastRetry.MaxAttempts)
	}
}

func TestRetryDoDoesNotRetryOtherKinds(t *testing.T) {
	attempts := 0
	_, err := retryDo(context.Background(), fastRetry, func() (string, error) {
		attempts++
		return "", newError(KindRejected, "gone")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for a non-transient failure", attempts)
	}
	if KindOf(err) != KindRejected {
		t.Errorf("kind = %v, want KindRejected", KindOf(err))
	}
}

func TestRetryDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	_, err := retryDo(ctx, fastRetry, func() (string, error) {
		attempts++
		return "", newError(KindTransient, "flaky")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 with a cancelled context", attempts)
	}
}
