// Package rules classifies documents by matching ordered pattern rules
// against their filename and title.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
)

// Algorithm selects how a rule's pattern is matched.
type Algorithm string

const (
	AlgorithmExact Algorithm = "EXACT"
	AlgorithmAny   Algorithm = "ANY"
	AlgorithmAll   Algorithm = "ALL"
	AlgorithmRegex Algorithm = "REGEX"
	AlgorithmFuzzy Algorithm = "FUZZY"
)

// ParseAlgorithm validates s as an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToUpper(strings.TrimSpace(s))); a {
	case AlgorithmExact, AlgorithmAny, AlgorithmAll, AlgorithmRegex, AlgorithmFuzzy:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAlgorithm, s)
	}
}

// Rule is a matching rule. A nil ScopeID makes the rule global.
type Rule struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	ScopeID        *uuid.UUID        `json:"scope_id,omitempty"`
	Algorithm      Algorithm         `json:"algorithm"`
	Pattern        string            `json:"pattern"`
	CaseSensitive  bool              `json:"case_sensitive"`
	Priority       int               `json:"priority"`
	Active         bool              `json:"active"`
	DocumentTypeID *uuid.UUID        `json:"document_type_id,omitempty"`
	EmployeeID     *uuid.UUID        `json:"employee_id,omitempty"`
	Status         *documents.Status `json:"status,omitempty"`
	Tags           []string          `json:"tags"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CreateCommand defines a new rule.
type CreateCommand struct {
	Name           string
	ScopeID        *uuid.UUID
	Algorithm      Algorithm
	Pattern        string
	CaseSensitive  bool
	Priority       int
	DocumentTypeID *uuid.UUID
	EmployeeID     *uuid.UUID
	Status         *documents.Status
	Tags           []string
}

// Assignment is the classification yielded by the first matching rule.
type Assignment struct {
	RuleID         uuid.UUID
	RuleName       string
	DocumentTypeID *uuid.UUID
	EmployeeID     *uuid.UUID
	Status         *documents.Status
	Tags           []string
}

func assignment(r Rule) *Assignment {
	return &Assignment{
		RuleID:         r.ID,
		RuleName:       r.Name,
		DocumentTypeID: r.DocumentTypeID,
		EmployeeID:     r.EmployeeID,
		Status:         r.Status,
		Tags:           r.Tags,
	}
}

// Apply fills the document fields the assignment targets that are still
// unset and unions its tags. An existing type, employee or status is never
// replaced. It reports whether doc changed.
func (a *Assignment) Apply(doc *documents.Document) bool {
	changed := false

	if a.DocumentTypeID != nil && doc.DocumentTypeID == nil {
		id := *a.DocumentTypeID
		doc.DocumentTypeID = &id
		changed = true
	}
	if a.EmployeeID != nil && doc.EmployeeID == nil {
		id := *a.EmployeeID
		doc.EmployeeID = &id
		changed = true
	}
	if a.Status != nil && doc.Status == documents.StatusUnassigned &&
		documents.CanTransition(doc.Status, *a.Status) && *a.Status != doc.Status {
		doc.Status = *a.Status
		changed = true
	}
	if doc.AddTags(a.Tags...) {
		changed = true
	}

	if changed {
		doc.Metadata.Merge(documents.Metadata{ClassifiedBy: a.RuleName})
	}
	return changed
}
