package scopes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/repository"
)

const columns = "id, code, name, created_at"

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a scope repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "scopes"),
	}
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Scope, error) {
	s, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM scopes WHERE id = $1", []any{id}, scanScope)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (*Scope, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	s, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM scopes WHERE code = $1", []any{code}, scanScope)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) List(ctx context.Context) ([]Scope, error) {
	return repository.QueryMany(ctx, r.db,
		"SELECT "+columns+" FROM scopes ORDER BY code", nil, scanScope)
}

func (r *repo) Ensure(ctx context.Context, code string) (*Scope, bool, error) {
	if !ValidCode(code) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	q := `
		INSERT INTO scopes (id, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING ` + columns

	s, err := repository.QueryOne(ctx, r.db, q, []any{uuid.New(), code, DefaultName(code)}, scanScope)
	if err == nil {
		r.logger.Info("scope created", "code", s.Code, "id", s.ID)
		return &s, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("ensure scope %s: %w", code, err)
	}

	existing, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func scanScope(s repository.Scanner) (Scope, error) {
	var sc Scope
	err := s.Scan(&sc.ID, &sc.Code, &sc.Name, &sc.CreatedAt)
	return sc, err
}
