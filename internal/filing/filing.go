// Package filing links classified documents to numbered entries in an
// employee's personnel file and keeps the file's retention date current.
package filing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
)

// FileStatus is the lifecycle state of a personnel file.
type FileStatus string

const (
	FileActive   FileStatus = "ACTIVE"
	FileInactive FileStatus = "INACTIVE"
	FileArchived FileStatus = "ARCHIVED"
	FileDeleted  FileStatus = "DELETED"
)

// PersonnelFile is the per-employee record documents are filed into.
type PersonnelFile struct {
	ID              uuid.UUID  `json:"id"`
	EmployeeID      uuid.UUID  `json:"employee_id"`
	FileNumber      string     `json:"file_number"`
	Status          FileStatus `json:"status"`
	OpenedAt        time.Time  `json:"opened_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	RetentionUntil  *time.Time `json:"retention_until,omitempty"`
	LastEntryNumber int        `json:"last_entry_number"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Entry is one numbered document in a personnel file.
type Entry struct {
	ID              uuid.UUID  `json:"id"`
	PersonnelFileID uuid.UUID  `json:"personnel_file_id"`
	DocumentID      uuid.UUID  `json:"document_id"`
	CategoryID      uuid.UUID  `json:"category_id"`
	EntryNumber     int        `json:"entry_number"`
	DocumentDate    *time.Time `json:"document_date,omitempty"`
	Notes           string     `json:"notes"`
	RetentionUntil  *time.Time `json:"retention_until,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Result reports the entry a filing produced and whether it is new.
type Result struct {
	Entry   Entry          `json:"entry"`
	File    *PersonnelFile `json:"file"`
	Created bool           `json:"created"`
}

// FileNumber derives the deterministic personnel file number.
func FileNumber(scopeCode, employeeNumber string) string {
	return fmt.Sprintf("PA-%s-%s", scopeCode, employeeNumber)
}

// System defines the filing engine contract.
type System interface {
	Handler() *Handler

	// File creates the personnel file entry for doc. It is a no-op
	// returning the existing entry when doc is already filed, and
	// ErrNotFileable when doc lacks an employee or a category.
	File(ctx context.Context, doc *documents.Document) (*Result, error)

	// Close marks a file INACTIVE as of closedAt and recomputes its
	// retention date.
	Close(ctx context.Context, fileID uuid.UUID, closedAt time.Time) (*PersonnelFile, error)

	FindFile(ctx context.Context, id uuid.UUID) (*PersonnelFile, error)
	FindFileByEmployee(ctx context.Context, employeeID uuid.UUID) (*PersonnelFile, error)
	Entries(ctx context.Context, fileID uuid.UUID) ([]Entry, error)

	// Pending lists documents that have an employee and a categorized
	// type but no entry yet, optionally restricted to one scope.
	Pending(ctx context.Context, scopeID *uuid.UUID) ([]uuid.UUID, error)
}
