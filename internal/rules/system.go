package rules

import (
	"context"

	"github.com/google/uuid"
)

// SeedResult counts what a seed created.
type SeedResult struct {
	Types int `json:"types"`
	Rules int `json:"rules"`
}

// System defines the public contract for matching rule storage.
type System interface {
	// List returns every rule; a non-nil scopeID restricts the result to
	// that scope's rules plus global ones.
	List(ctx context.Context, scopeID *uuid.UUID) ([]Rule, error)
	// Active returns the active rules applying to scopeID, ordered for
	// classification.
	Active(ctx context.Context, scopeID uuid.UUID) ([]Rule, error)
	Find(ctx context.Context, id uuid.UUID) (*Rule, error)
	Create(ctx context.Context, cmd CreateCommand) (*Rule, error)
	// SeedSage ensures the Sage document types and their rules exist,
	// globally or for one scope.
	SeedSage(ctx context.Context, scopeID *uuid.UUID) (SeedResult, error)
}
