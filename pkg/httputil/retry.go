package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// RetryableError marks a transient failure. After, when positive, is the
// wait the server asked for and replaces the computed backoff once.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy bounds how often and how patiently [Do] retries.
type Policy struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // first backoff, doubled after each failure
	MaxDelay time.Duration // cap for backoff and server hints; 0 means DefaultMaxDelay

	// OnRetry, if set, is called before sleeping with the 1-based attempt
	// that failed and the wait that follows.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultMaxDelay caps a single wait when a Policy sets no MaxDelay.
const DefaultMaxDelay = 30 * time.Second

// Do runs fn until it succeeds, fails with an error not wrapped in
// [RetryableError], the attempts run out or ctx ends. The last error is
// returned; a cancelled context wins over it.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = DefaultMaxDelay
	}
	delay := min(p.Delay, ceiling)

	var err error
	for i := 1; ; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) || i == attempts {
			return err
		}

		wait := delay
		if re.After > 0 {
			wait = min(re.After, ceiling)
		}
		if p.OnRetry != nil {
			p.OnRetry(i, wait, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, ceiling)
	}
}

// Retry is [Do] with a plain exponential policy.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Do(ctx, Policy{Attempts: attempts, Delay: delay}, fn)
}

// RetryableStatus reports whether an HTTP status code indicates a transient
// server condition worth retrying.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// RetryAfter parses a Retry-After header given either as seconds or as an
// HTTP date. Missing or unparseable values yield 0.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
