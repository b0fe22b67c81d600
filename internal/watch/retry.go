package watch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"
)

// RetryableError marks a transient failure, such as reading a file an
// editor is still writing.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return fmt.Sprintf("retryable: %v", e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if base > 5*time.Second {
		base = 5 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// ReadStable reads path, treating a missing or empty file as a retryable
// error since editors often truncate or rename before writing.
func ReadStable(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &RetryableError{Err: err}
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &RetryableError{Err: fmt.Errorf("%s is empty", path)}
	}
	return data, nil
}
