package scanner

import (
	"context"
	"errors"
	"time"
)

// Retry runs fn until it succeeds or attempts are exhausted, waiting backoff
// between attempts. Only outright run failures are retried: configuration
// errors and cancellation return immediately, and a run skipped because the
// lock was held is a success.
func (s *Scanner) Retry(ctx context.Context, name string, fn func(context.Context) (Result, error)) (Result, error) {
	attempts := max(s.cfg.RetryAttempts, 1)
	backoff := s.cfg.RetryBackoffDuration()

	var (
		res Result
		err error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		res, err = fn(ctx)
		if err == nil || !retryable(err) {
			return res, err
		}

		if attempt == attempts {
			break
		}

		s.logger.Warn("scan run failed, retrying",
			"scan", name, "attempt", attempt, "of", attempts, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(backoff):
		}
	}

	s.logger.Error("scan run failed, giving up", "scan", name, "attempts", attempts, "error", err)
	return res, err
}

// ScheduledArchive runs RunArchive with retry.
func (s *Scanner) ScheduledArchive(ctx context.Context) (Result, error) {
	return s.Retry(ctx, LockArchive, s.RunArchive)
}

// ScheduledManual runs RunManual with retry.
func (s *Scanner) ScheduledManual(ctx context.Context) (Result, error) {
	return s.Retry(ctx, LockManual, s.RunManual)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrArchiveRoot), errors.Is(err, ErrManualRoot):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
