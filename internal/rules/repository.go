package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/categories"
	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/pkg/repository"
)

const columns = `id, name, scope_id, algorithm, pattern, case_sensitive, priority, active,
	document_type_id, employee_id, status, tags, created_at`

type repo struct {
	db         *sql.DB
	categories categories.System
	logger     *slog.Logger
}

// New creates a rule repository implementing System.
func New(db *sql.DB, cats categories.System, logger *slog.Logger) System {
	return &repo{
		db:         db,
		categories: cats,
		logger:     logger.With("system", "rules"),
	}
}

func (r *repo) List(ctx context.Context, scopeID *uuid.UUID) ([]Rule, error) {
	if scopeID == nil {
		return repository.QueryMany(ctx, r.db,
			"SELECT "+columns+" FROM matching_rules ORDER BY priority DESC, name",
			nil, scanRule)
	}
	return repository.QueryMany(ctx, r.db,
		"SELECT "+columns+" FROM matching_rules WHERE scope_id = $1 OR scope_id IS NULL ORDER BY priority DESC, name",
		[]any{*scopeID}, scanRule)
}

func (r *repo) Active(ctx context.Context, scopeID uuid.UUID) ([]Rule, error) {
	rules, err := repository.QueryMany(ctx, r.db, `
		SELECT `+columns+`
		FROM matching_rules
		WHERE active AND (scope_id = $1 OR scope_id IS NULL)
		ORDER BY priority DESC, created_at`,
		[]any{scopeID}, scanRule)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}
	Sort(rules)
	return rules, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Rule, error) {
	rule, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM matching_rules WHERE id = $1", []any{id}, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rule, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Rule, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Pattern) == "" {
		return nil, ErrInvalidPattern
	}

	algorithm, err := ParseAlgorithm(string(cmd.Algorithm))
	if err != nil {
		return nil, err
	}

	if _, err := compile(Rule{Algorithm: algorithm, Pattern: cmd.Pattern, CaseSensitive: cmd.CaseSensitive}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	tags := cmd.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	var status *string
	if cmd.Status != nil {
		s := string(*cmd.Status)
		status = &s
	}

	q := `
		INSERT INTO matching_rules (
			id, name, scope_id, algorithm, pattern, case_sensitive, priority,
			document_type_id, employee_id, status, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + columns

	rule, err := repository.QueryOne(ctx, r.db, q, []any{
		uuid.New(), cmd.Name, cmd.ScopeID, string(algorithm), cmd.Pattern, cmd.CaseSensitive,
		cmd.Priority, cmd.DocumentTypeID, cmd.EmployeeID, status, tagsJSON,
	}, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule created", "id", rule.ID, "name", rule.Name, "algorithm", rule.Algorithm)
	return &rule, nil
}

func (r *repo) SeedSage(ctx context.Context, scopeID *uuid.UUID) (SeedResult, error) {
	var result SeedResult

	for _, st := range Sage {
		dt, created, err := r.categories.EnsureType(ctx, st.Name, st.Description, st.Category)
		if err != nil {
			return result, fmt.Errorf("seed type %s: %w", st.Name, err)
		}
		if created {
			result.Types++
		}

		_, err = r.Create(ctx, CreateCommand{
			Name:           SageRulePrefix + st.Name,
			ScopeID:        scopeID,
			Algorithm:      st.Algorithm,
			Pattern:        st.Pattern,
			Priority:       SagePriority,
			DocumentTypeID: &dt.ID,
		})
		switch {
		case errors.Is(err, ErrDuplicate):
		case err != nil:
			return result, fmt.Errorf("seed rule %s: %w", st.Name, err)
		default:
			result.Rules++
		}
	}

	r.logger.Info("sage seed complete", "types_created", result.Types, "rules_created", result.Rules)
	return result, nil
}

func scanRule(s repository.Scanner) (Rule, error) {
	var (
		r         Rule
		algorithm string
		status    sql.NullString
		tags      []byte
	)
	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.ScopeID,
		&algorithm,
		&r.Pattern,
		&r.CaseSensitive,
		&r.Priority,
		&r.Active,
		&r.DocumentTypeID,
		&r.EmployeeID,
		&status,
		&tags,
		&r.CreatedAt,
	)
	if err != nil {
		return r, err
	}

	r.Algorithm = Algorithm(algorithm)
	if status.Valid {
		st := documents.Status(status.String)
		r.Status = &st
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &r.Tags); err != nil {
			return r, fmt.Errorf("decode tags of rule %s: %w", r.ID, err)
		}
	}
	return r, nil
}
