package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
)

// Classifier applies rules to stored documents and persists the result.
type Classifier struct {
	rules  System
	docs   documents.System
	logger *slog.Logger
}

func NewClassifier(rules System, docs documents.System, logger *slog.Logger) *Classifier {
	return &Classifier{
		rules:  rules,
		docs:   docs,
		logger: logger.With("system", "classifier"),
	}
}

// Set loads the rules applying to scopeID.
func (c *Classifier) Set(ctx context.Context, scopeID uuid.UUID) (*Set, error) {
	rules, err := c.rules.Active(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return NewSet(rules, c.logger), nil
}

// Apply classifies doc against set. With persist, a changed document is
// written back; doc is updated in place either way.
func (c *Classifier) Apply(ctx context.Context, set *Set, doc *documents.Document, persist bool) (*Assignment, bool, error) {
	a := set.Classify(doc)
	if a == nil {
		return nil, false, nil
	}

	changed := a.Apply(doc)
	if !changed || !persist {
		return a, changed, nil
	}

	if err := c.docs.Update(ctx, doc); err != nil {
		return a, false, fmt.Errorf("persist classification of %s: %w", doc.ID, err)
	}

	c.logger.Info("document classified",
		"id", doc.ID, "scope", doc.ScopeCode, "filename", doc.Filename,
		"rule", a.RuleName, "status", doc.Status)
	return a, true, nil
}

// Classify loads the scope's rules and applies them to doc.
func (c *Classifier) Classify(ctx context.Context, doc *documents.Document) (*Assignment, error) {
	set, err := c.Set(ctx, doc.ScopeID)
	if err != nil {
		return nil, err
	}
	a, _, err := c.Apply(ctx, set, doc, true)
	return a, err
}
