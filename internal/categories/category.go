// Package categories holds the filing plan: the tree of file categories with
// their retention rules, and the document types that map into it.
package categories

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/retention"
)

// Category is a node of the filing plan.
type Category struct {
	ID               uuid.UUID         `json:"id"`
	Code             string            `json:"code"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	ParentID         *uuid.UUID        `json:"parent_id,omitempty"`
	RetentionYears   int               `json:"retention_years"`
	RetentionTrigger retention.Trigger `json:"retention_trigger"`
	Mandatory        bool              `json:"mandatory"`
	SortOrder        int               `json:"sort_order"`
}

// Rule returns the category's retention rule.
func (c Category) Rule() retention.Rule {
	return retention.Rule{Years: c.RetentionYears, Trigger: c.RetentionTrigger}
}

// DocumentType classifies documents and points at the category they are
// filed under.
type DocumentType struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// SeedResult counts rows written by a seed operation.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// System defines filing plan access.
type System interface {
	ListCategories(ctx context.Context) ([]Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	FindCategoryByCode(ctx context.Context, code string) (*Category, error)

	ListTypes(ctx context.Context) ([]DocumentType, error)
	FindType(ctx context.Context, id uuid.UUID) (*DocumentType, error)
	FindTypeByName(ctx context.Context, name string) (*DocumentType, error)
	// EnsureType creates or updates a document type linked to the category
	// with categoryCode ("" leaves it unlinked).
	EnsureType(ctx context.Context, name, description, categoryCode string) (*DocumentType, bool, error)

	// SeedPlan writes the standard personnel filing plan, updating nodes
	// that already exist.
	SeedPlan(ctx context.Context) (SeedResult, error)
}
