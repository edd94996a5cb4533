package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a ledger repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "ledger"),
	}
}

func (r *repo) Find(ctx context.Context, scopeID uuid.UUID, hash string) (*Entry, error) {
	q := `
		SELECT scope_id, hash, original_path, document_id, outcome, processed_at
		FROM ledger_entries
		WHERE scope_id = $1 AND hash = $2`

	e, err := repository.QueryOne(ctx, r.db, q, []any{scopeID, hash}, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Exists(ctx context.Context, scopeID uuid.UUID, hash string) (bool, error) {
	return ExistsTx(ctx, r.db, scopeID, hash)
}

func (r *repo) KnownHashes(ctx context.Context, scopeID uuid.UUID) (map[string]struct{}, error) {
	set, err := repository.QueryStrings(ctx, r.db,
		"SELECT hash FROM ledger_entries WHERE scope_id = $1", scopeID)
	if err != nil {
		return nil, fmt.Errorf("load known hashes: %w", err)
	}
	return set, nil
}

func (r *repo) KnownPaths(ctx context.Context, scopeID uuid.UUID) (map[string]struct{}, error) {
	set, err := repository.QueryStrings(ctx, r.db,
		"SELECT original_path FROM ledger_entries WHERE scope_id = $1", scopeID)
	if err != nil {
		return nil, fmt.Errorf("load known paths: %w", err)
	}
	return set, nil
}

func (r *repo) NewCache(ctx context.Context, scopeID uuid.UUID) (*Cache, error) {
	paths, err := r.KnownPaths(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	hashes, err := r.KnownHashes(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("ledger cache loaded", "scope_id", scopeID, "paths", len(paths), "hashes", len(hashes))
	return NewCache(paths, hashes), nil
}

// ExistsTx checks for a ledger entry using q, typically the transaction
// about to commit a new document.
func ExistsTx(ctx context.Context, q repository.Querier, scopeID uuid.UUID, hash string) (bool, error) {
	return repository.Exists(ctx, q,
		"SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE scope_id = $1 AND hash = $2)",
		scopeID, hash)
}

// Record inserts e. A concurrent writer that already recorded the same
// (scope, hash) yields ErrDuplicate.
func Record(ctx context.Context, e repository.Executor, entry Entry) error {
	outcome := entry.Outcome
	if outcome == "" {
		outcome = OutcomeDocument
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO ledger_entries (scope_id, hash, original_path, document_id, outcome)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ScopeID, entry.Hash, entry.OriginalPath, entry.DocumentID, string(outcome),
	)
	if repository.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, entry.Hash)
	}
	return err
}

// MarkSplit reconciles the entry that produced documentID to OutcomeSplit.
// Split documents produced by resplitting already-split lineage have no
// entry; that is not an error.
func MarkSplit(ctx context.Context, e repository.Executor, scopeID, documentID uuid.UUID) error {
	_, err := e.ExecContext(ctx, `
		UPDATE ledger_entries
		SET outcome = $1, document_id = NULL
		WHERE scope_id = $2 AND document_id = $3`,
		string(OutcomeSplit), scopeID, documentID,
	)
	return err
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e       Entry
		outcome string
	)
	err := s.Scan(&e.ScopeID, &e.Hash, &e.OriginalPath, &e.DocumentID, &outcome, &e.ProcessedAt)
	e.Outcome = Outcome(outcome)
	return e, err
}
