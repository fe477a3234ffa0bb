package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxRetryAfter caps the wait a server may request through Retry-After.
const MaxRetryAfter = 30 * time.Second

// RetryableError marks a transient failure (network error, 429, 5xx)
// that [Retry] may attempt again. After, when positive, is the wait the
// server asked for and replaces the backoff delay for that attempt.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn up to attempts times, doubling delay after each
// retryable failure. Non-retryable errors are returned at once.
//
// Lookups run inside a batch deadline: when the next wait would end
// after ctx's deadline, Retry gives up early and returns the last error
// instead of sleeping into a cancellation.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(lastErr, &re) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return lastErr
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// RetryWithBackoff makes three attempts, 200ms then 400ms apart.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, 200*time.Millisecond, fn)
}

// IsRetryable reports whether err is wrapped in a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// ParseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. It returns 0 for a missing or unparseable value and
// caps the result at [MaxRetryAfter].
func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = time.Until(t)
	}
	return min(max(d, 0), MaxRetryAfter)
}
