// Package employees provides read access to employees and resolves raw
// barcode identifiers to known employees within a scope.
package employees

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Employee is a person whose documents are filed. Employee numbers are
// unique within a scope.
type Employee struct {
	ID             uuid.UUID         `json:"id"`
	ScopeID        uuid.UUID         `json:"scope_id"`
	EmployeeNumber string            `json:"employee_number"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Active         bool              `json:"active"`
	ExternalIDs    map[string]string `json:"external_ids,omitempty"`
	ExitDate       *time.Time        `json:"exit_date,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// DisplayName returns "First Last", or the employee number when no name is set.
func (e Employee) DisplayName() string {
	switch {
	case e.FirstName != "" && e.LastName != "":
		return e.FirstName + " " + e.LastName
	case e.LastName != "":
		return e.LastName
	case e.FirstName != "":
		return e.FirstName
	default:
		return e.EmployeeNumber
	}
}

// CreateCommand registers an employee. Used by administrative tooling only;
// ingestion never mutates employees.
type CreateCommand struct {
	ScopeID        uuid.UUID         `json:"scope_id"`
	EmployeeNumber string            `json:"employee_number"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	ExternalIDs    map[string]string `json:"external_ids,omitempty"`
}

// Finder looks up an employee by number within a scope.
// It returns ErrNotFound when no employee matches.
type Finder interface {
	FindByNumber(ctx context.Context, scopeID uuid.UUID, number string) (*Employee, error)
}

// System defines employee data access.
type System interface {
	Finder
	Find(ctx context.Context, id uuid.UUID) (*Employee, error)
	List(ctx context.Context, scopeID uuid.UUID) ([]Employee, error)
	Create(ctx context.Context, cmd CreateCommand) (*Employee, error)
}
