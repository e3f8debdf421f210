package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// StatusError carries a non-200 provider response.
type StatusError struct {
	Provider string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Provider, e.Status)
}

// Retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures. Context cancellation never is.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status == http.StatusTooManyRequests || status.Status >= 500
	}
	return true
}

// RetryOptions bounds provider retries.
type RetryOptions struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultRetryOptions allows three attempts with a short exponential backoff.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{Attempts: 3, Delay: 500 * time.Millisecond}
}

// Do runs fn with bounded retries on Retryable errors.
func Do[T any](ctx context.Context, opts RetryOptions, fn func() (T, error)) (T, error) {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	return retry.DoWithData(fn,
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
	)
}
