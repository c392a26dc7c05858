package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by the registry and raw-file clients. They live
// here so that backends such as RedisCache can report transport failures
// with the same identity.
var (
	// ErrNotFound reports a package, version or file the remote does not have.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports timeouts, connection failures and 5xx responses.
	ErrNetwork = errors.New("network error")
)

// Retry schedule for RetryWithBackoff.
var (
	retryAttempts  = 3
	retryBaseDelay = time.Second
)

// RetryableError marks a transient failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// Retryable, or runs out of attempts. The delay doubles after every failed
// attempt; cancellation of ctx ends the wait with ctx.Err().
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == retryAttempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
