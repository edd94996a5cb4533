// Package documents implements the document domain: encrypted content plus
// mutable classification state, with ledger-checked creation and
// transactional bundle splitting.
package documents

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the classification state of a document.
type Status string

const (
	StatusUnassigned   Status = "UNASSIGNED"
	StatusAssigned     Status = "ASSIGNED"
	StatusReviewNeeded Status = "REVIEW_NEEDED"
	StatusCompany      Status = "COMPANY"
	StatusArchived     Status = "ARCHIVED"
)

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(s)); st {
	case StatusUnassigned, StatusAssigned, StatusReviewNeeded, StatusCompany, StatusArchived:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) rank() int {
	switch s {
	case StatusUnassigned:
		return 0
	case StatusCompany, StatusReviewNeeded:
		return 1
	case StatusAssigned:
		return 2
	case StatusArchived:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether a document may move from one status to
// another. Status only moves toward ARCHIVED; REVIEW_NEEDED and COMPANY are
// peers that cannot be exchanged for one another.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	f, t := from.rank(), to.rank()
	if f < 0 || t < 0 {
		return false
	}
	return t > f
}

// Source is the channel a document arrived through.
type Source string

const (
	SourceArchive Source = "ARCHIVE"
	SourceManual  Source = "MANUAL"
	SourceWeb     Source = "WEB"
	SourceEmail   Source = "EMAIL"
)

// Document is immutable encrypted content plus classification state.
// SHA256 is always the hex digest of the decrypted content.
type Document struct {
	ID             uuid.UUID  `json:"id"`
	ScopeID        uuid.UUID  `json:"scope_id"`
	ScopeCode      string     `json:"scope_code"`
	BlobKey        string     `json:"-"`
	SizeBytes      int64      `json:"size_bytes"`
	SHA256         string     `json:"sha256"`
	Filename       string     `json:"filename"`
	Title          string     `json:"title"`
	Extension      string     `json:"extension"`
	MediaType      string     `json:"media_type"`
	DocumentTypeID *uuid.UUID `json:"document_type_id,omitempty"`
	EmployeeID     *uuid.UUID `json:"employee_id,omitempty"`
	Status         Status     `json:"status"`
	Source         Source     `json:"source"`
	DocumentDate   *time.Time `json:"document_date,omitempty"`
	Metadata       Metadata   `json:"metadata"`
	Tags           []string   `json:"tags"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsPDF reports whether the document is a PDF by media type or extension.
func (d Document) IsPDF() bool {
	return d.MediaType == "application/pdf" || strings.EqualFold(d.Extension, ".pdf")
}

// BaseName returns the filename without its extension.
func (d Document) BaseName() string {
	return strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
}

// AddTags unions tags into the document's tag set, preserving order.
func (d *Document) AddTags(tags ...string) bool {
	changed := false
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || containsFold(d.Tags, t) {
			continue
		}
		d.Tags = append(d.Tags, t)
		changed = true
	}
	return changed
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// LedgerRecord asks Create to re-check and record the content ledger in the
// same transaction that inserts the document.
type LedgerRecord struct {
	OriginalPath string
}

// CreateCommand carries the plaintext content and initial state of a new
// document. Hash, when set, must equal the digest of Data.
type CreateCommand struct {
	ScopeID        uuid.UUID
	Data           []byte
	Hash           string
	Filename       string
	Title          string
	MediaType      string
	Source         Source
	Status         Status
	DocumentTypeID *uuid.UUID
	EmployeeID     *uuid.UUID
	DocumentDate   *time.Time
	Metadata       Metadata
	Tags           []string
	Notes          string
	Ledger         *LedgerRecord
}

// SplitCommand replaces Bundle with Parts. Parts are created, the bundle is
// archived with split lineage, and its ledger entry is reconciled, all in
// one transaction.
type SplitCommand struct {
	Bundle *Document
	Parts  []CreateCommand
	Notes  string
}

// TitleFromFilename derives a display title from a filename.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
