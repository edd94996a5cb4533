package lock

import "errors"

var (
	// ErrHeld means another owner holds the lock. It is a normal outcome.
	ErrHeld = errors.New("lock held by another owner")
	// ErrNotOwner means the caller's token no longer matches the stored one.
	ErrNotOwner     = errors.New("lock not owned by caller")
	ErrInvalidTTL   = errors.New("lock ttl must be positive")
	ErrUnknownStore = errors.New("unknown lock store")
)
