package visit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// RetryPolicy bounds how writes are retried on lock contention.
type RetryPolicy struct {
	Attempts int           // total tries, including the first
	Backoff  time.Duration // fixed wait between tries
}

// DefaultRetryPolicy tries a write three times, 400ms apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 400 * time.Millisecond}

// withRetry runs fn, retrying while it fails with a lock error. Any other
// error, or running out of attempts, yields a *PersistenceError.
func (r *Repository) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := r.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isLocked(err) {
			return &PersistenceError{Op: op, Attempts: attempt, Err: err}
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		slog.Warn("store locked, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", r.retry.Backoff.String(),
		)

		timer := time.NewTimer(r.retry.Backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return &PersistenceError{Op: op, Attempts: attempt, Err: ctx.Err()}
		}
	}

	return &PersistenceError{Op: op, Attempts: attempts, Err: lastErr}
}

// isLocked reports whether err is SQLite lock contention.
func isLocked(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return strings.Contains(strings.ToLower(err.Error()), "locked")
}
