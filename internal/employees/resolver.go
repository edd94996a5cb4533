package employees

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PadWidth is the fixed width numeric ids are zero-padded to.
const PadWidth = 8

// Resolver maps raw barcode ids to employees. Hits are cached per process
// in an expiring LRU; misses are not cached so newly imported employees
// resolve on the next attempt.
type Resolver struct {
	finder Finder
	cache  *expirable.LRU[string, *Employee]
	logger *slog.Logger
}

// NewResolver creates a Resolver over finder with an LRU of size entries
// that expire after ttl.
func NewResolver(finder Finder, size int, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		finder: finder,
		cache:  expirable.NewLRU[string, *Employee](max(size, 1), nil, ttl),
		logger: logger.With("system", "resolver"),
	}
}

// Resolve returns the employee for rawID within scopeID, or nil when no
// candidate form of the id matches. A nil employee is not an error.
func (r *Resolver) Resolve(ctx context.Context, rawID string, scopeID uuid.UUID) (*Employee, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, nil
	}

	key := scopeID.String() + "|" + rawID
	if e, ok := r.cache.Get(key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return e, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	for _, candidate := range Candidates(rawID) {
		e, err := r.finder.FindByNumber(ctx, scopeID, candidate)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r.cache.Add(key, e)
		return e, nil
	}

	r.logger.Debug("employee id unresolved", "raw_id", rawID, "scope_id", scopeID)
	return nil, nil
}

// Candidates lists the employee numbers tried for rawID, in order: the id
// as given, then for numeric ids the id without leading zeros and the id
// zero-padded to PadWidth. Duplicates are dropped.
func Candidates(rawID string) []string {
	out := []string{rawID}
	if !isDigits(rawID) {
		return out
	}

	stripped := strings.TrimLeft(rawID, "0")
	if stripped == "" {
		stripped = "0"
	}

	padded := rawID
	if len(stripped) < PadWidth {
		padded = strings.Repeat("0", PadWidth-len(stripped)) + stripped
	}

	for _, c := range []string{stripped, padded} {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
