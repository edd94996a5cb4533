// Package scopes manages tenants: the 8-digit partitions of the archive that
// own their own employees and content ledger.
package scopes

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var codePattern = regexp.MustCompile(`^[0-9]{8}$`)

// Scope is a tenant identified by an 8-digit code.
type Scope struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCode reports whether code is an 8-digit scope code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// DefaultName is the name given to scopes created on first sighting.
func DefaultName(code string) string {
	return "Mandant " + code
}

// System defines scope lookups and lazy creation.
type System interface {
	Find(ctx context.Context, id uuid.UUID) (*Scope, error)
	FindByCode(ctx context.Context, code string) (*Scope, error)
	List(ctx context.Context) ([]Scope, error)
	// Ensure returns the scope for code, creating it when absent.
	// created reports whether this call inserted the row.
	Ensure(ctx context.Context, code string) (scope *Scope, created bool, err error)
}
