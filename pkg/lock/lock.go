// Package lock provides a named, time-boxed, token-guarded mutual exclusion
// primitive for jobs that must not run concurrently across processes or hosts.
//
// Acquisition is a single atomic set-if-absent with expiry; release and
// extension only succeed while the stored token still matches the caller's.
// When the coordination store cannot be reached the Locker favors
// availability: it logs at Error and hands out a degraded lease so the job
// still runs.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is the coordination backend behind a Locker.
type Store interface {
	// Acquire stores token at key with expiry ttl only if key is absent.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release deletes key only if its value equals token.
	Release(ctx context.Context, key, token string) (bool, error)
	// Extend resets the expiry of key to ttl only if its value equals token.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// Locker hands out leases for named locks.
type Locker struct {
	store  Store
	prefix string
	logger *slog.Logger
}

// New creates a Locker that namespaces every lock name under prefix.
func New(store Store, prefix string, logger *slog.Logger) *Locker {
	return &Locker{
		store:  store,
		prefix: prefix,
		logger: logger.With("system", "lock"),
	}
}

// Key returns the store key for a lock name.
func (l *Locker) Key(name string) string {
	return l.prefix + name
}

// Acquire attempts to take the named lock for ttl. It returns ErrHeld when
// another owner holds the lock. A store failure yields a degraded lease and no error.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	key := l.Key(name)
	token := uuid.NewString()

	ok, err := l.store.Acquire(ctx, key, token, ttl)
	if err != nil {
		l.logger.Error("coordination store unreachable, proceeding without lock",
			"lock", name, "error", err)
		attempts.WithLabelValues(name, outcomeDegraded).Inc()
		return &Lease{locker: l, name: name, key: key, token: token, ttl: ttl, degraded: true}, nil
	}
	if !ok {
		attempts.WithLabelValues(name, outcomeHeld).Inc()
		return nil, fmt.Errorf("%w: %s", ErrHeld, name)
	}

	attempts.WithLabelValues(name, outcomeAcquired).Inc()
	l.logger.Debug("lock acquired", "lock", name, "ttl", ttl)
	return &Lease{locker: l, name: name, key: key, token: token, ttl: ttl}, nil
}

// WithLock runs fn while holding the named lock. It reports acquired=false
// without error when the lock is held elsewhere. The lease is extended every
// ttl/3 while fn runs; if ownership is lost, fn's context is cancelled.
func (l *Locker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	lease, err := l.Acquire(ctx, name, ttl)
	if errors.Is(err, ErrHeld) {
		l.logger.Info("lock held elsewhere, skipping run", "lock", name)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	if !lease.degraded {
		go lease.keepAlive(runCtx, cancel, done)
	} else {
		close(done)
	}

	fnErr := fn(runCtx)
	cancel()
	<-done

	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		l.logger.Warn("lock release failed", "lock", name, "error", err)
	}

	return true, fnErr
}

// Lease is ownership of a named lock.
type Lease struct {
	locker   *Locker
	name     string
	key      string
	token    string
	ttl      time.Duration
	degraded bool
}

// Degraded reports whether the lease was granted without store coordination.
func (l *Lease) Degraded() bool {
	return l.degraded
}

// Release gives the lock back. Releasing a lock that expired and was taken
// by another owner returns ErrNotOwner and leaves the other owner's lock intact.
func (l *Lease) Release(ctx context.Context) error {
	if l.degraded {
		return nil
	}

	ok, err := l.locker.store.Release(ctx, l.key, l.token)
	if err != nil {
		return fmt.Errorf("release %s: %w", l.name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOwner, l.name)
	}

	l.locker.logger.Debug("lock released", "lock", l.name)
	return nil
}

// Extend pushes the expiry out by the lease ttl.
func (l *Lease) Extend(ctx context.Context) error {
	if l.degraded {
		return nil
	}

	ok, err := l.locker.store.Extend(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOwner, l.name)
	}
	return nil
}

func (l *Lease) keepAlive(ctx context.Context, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(l.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := l.Extend(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrNotOwner) {
				l.locker.logger.Error("lock ownership lost, cancelling run", "lock", l.name)
				attempts.WithLabelValues(l.name, outcomeLost).Inc()
				cancel()
				return
			}
			l.locker.logger.Warn("lock extension failed", "lock", l.name, "error", err)
		}
	}
}
