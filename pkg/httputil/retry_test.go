package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetryExhausted(t *testing.T) {
	calls := 0
	want := errors.New("still down")
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: want}
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want wrapped %v", err, want)
	}
}

func TestRetryMinimumOneAttempt(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryableStatus(t *testing.T) {
	tests := map[int]bool{200: false, 404: false, 409: false, 429: true, 500: true, 503: true}
	for code, want := range tests {
		if got := RetryableStatus(code); got != want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestHostLimiter(t *testing.T) {
	var nilLimiter *HostLimiter
	if err := nilLimiter.Wait(context.Background(), "https://x.org/"); err != nil {
		t.Errorf("nil limiter: %v", err)
	}

	unlimited := NewHostLimiter(0, 0)
	for range 100 {
		if err := unlimited.Wait(context.Background(), "https://x.org/"); err != nil {
			t.Fatalf("unlimited: %v", err)
		}
	}

	l := NewHostLimiter(0.001, 1)
	if err := l.Wait(context.Background(), "https://a.org/x"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	// a different host has its own bucket
	if err := l.Wait(context.Background(), "https://b.org/x"); err != nil {
		t.Fatalf("other host: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "https://a.org/y"); err == nil {
		t.Error("second wait on exhausted host should fail before its deadline")
	}
}

func TestDoServerHintAndCeiling(t *testing.T) {
	var waits []time.Duration
	calls := 0
	p := Policy{
		Attempts: 4,
		Delay:    time.Millisecond,
		MaxDelay: 5 * time.Millisecond,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			if attempt != len(waits)+1 {
				t.Errorf("attempt = %d, want %d", attempt, len(waits)+1)
			}
			waits = append(waits, wait)
		},
	}
	err := Do(context.Background(), p, func() error {
		calls++
		switch calls {
		case 1:
			return &RetryableError{Err: errors.New("busy"), After: time.Hour}
		case 4:
			return nil
		}
		return &RetryableError{Err: errors.New("busy")}
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := []time.Duration{5 * time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := RetryAfter(h, now); got != tt.want {
			t.Errorf("RetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
