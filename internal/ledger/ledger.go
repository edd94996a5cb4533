// Package ledger records which content hashes have been processed per scope
// so the same bytes are never ingested twice, whatever path they appear at.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is what a ledger entry's content produced.
type Outcome string

const (
	// OutcomeDocument means the content produced the referenced document.
	OutcomeDocument Outcome = "DOCUMENT"
	// OutcomeSplit means the content was a bundle split into several
	// documents; the entry references no single document.
	OutcomeSplit Outcome = "SPLIT"
)

// Entry maps (scope, hash) to the outcome of processing that content.
type Entry struct {
	ScopeID      uuid.UUID  `json:"scope_id"`
	Hash         string     `json:"hash"`
	OriginalPath string     `json:"original_path"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	Outcome      Outcome    `json:"outcome"`
	ProcessedAt  time.Time  `json:"processed_at"`
}

// System provides read access to the ledger. Writes happen inside the
// transactions that create documents; see Record, ExistsTx and MarkSplit.
type System interface {
	Find(ctx context.Context, scopeID uuid.UUID, hash string) (*Entry, error)
	Exists(ctx context.Context, scopeID uuid.UUID, hash string) (bool, error)
	KnownHashes(ctx context.Context, scopeID uuid.UUID) (map[string]struct{}, error)
	KnownPaths(ctx context.Context, scopeID uuid.UUID) (map[string]struct{}, error)
	// NewCache loads the path and hash sets of one scope for a scan run.
	NewCache(ctx context.Context, scopeID uuid.UUID) (*Cache, error)
}
