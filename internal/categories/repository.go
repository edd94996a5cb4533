package categories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/retention"
	"github.com/JaimeStill/dossier/pkg/repository"
)

const (
	categoryColumns = `id, code, name, description, parent_id, retention_years,
		retention_trigger, mandatory, sort_order`
	typeColumns = "id, name, description, category_id"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a filing plan repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "categories"),
	}
}

func (r *repo) ListCategories(ctx context.Context) ([]Category, error) {
	return repository.QueryMany(ctx, r.db,
		"SELECT "+categoryColumns+" FROM file_categories ORDER BY sort_order, code",
		nil, scanCategory)
}

func (r *repo) FindCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := repository.QueryOne(ctx, r.db,
		"SELECT "+categoryColumns+" FROM file_categories WHERE id = $1",
		[]any{id}, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindCategoryByCode(ctx context.Context, code string) (*Category, error) {
	c, err := repository.QueryOne(ctx, r.db,
		"SELECT "+categoryColumns+" FROM file_categories WHERE code = $1",
		[]any{code}, scanCategory)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) ListTypes(ctx context.Context) ([]DocumentType, error) {
	return repository.QueryMany(ctx, r.db,
		"SELECT "+typeColumns+" FROM document_types ORDER BY name",
		nil, scanType)
}

func (r *repo) FindType(ctx context.Context, id uuid.UUID) (*DocumentType, error) {
	t, err := repository.QueryOne(ctx, r.db,
		"SELECT "+typeColumns+" FROM document_types WHERE id = $1",
		[]any{id}, scanType)
	if err != nil {
		return nil, repository.MapError(err, ErrTypeNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) FindTypeByName(ctx context.Context, name string) (*DocumentType, error) {
	t, err := repository.QueryOne(ctx, r.db,
		"SELECT "+typeColumns+" FROM document_types WHERE name = $1",
		[]any{name}, scanType)
	if err != nil {
		return nil, repository.MapError(err, ErrTypeNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) EnsureType(ctx context.Context, name, description, categoryCode string) (*DocumentType, bool, error) {
	var categoryID *uuid.UUID
	if categoryCode != "" {
		c, err := r.FindCategoryByCode(ctx, categoryCode)
		if err != nil {
			return nil, false, fmt.Errorf("category %s: %w", categoryCode, err)
		}
		categoryID = &c.ID
	}

	// xmax = 0 distinguishes a fresh insert from an upsert update.
	q := `
		INSERT INTO document_types (id, name, description, category_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    category_id = COALESCE(EXCLUDED.category_id, document_types.category_id)
		RETURNING ` + typeColumns + `, (xmax = 0)`

	var (
		t       DocumentType
		created bool
	)
	err := r.db.QueryRowContext(ctx, q, uuid.New(), name, description, categoryID).
		Scan(&t.ID, &t.Name, &t.Description, &t.CategoryID, &created)
	if err != nil {
		return nil, false, fmt.Errorf("ensure document type %s: %w", name, err)
	}
	return &t, created, nil
}

func (r *repo) SeedPlan(ctx context.Context) (SeedResult, error) {
	nodes, parents := Flatten(Plan)

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (SeedResult, error) {
		var res SeedResult
		ids := make(map[string]uuid.UUID, len(nodes))

		q := `
			INSERT INTO file_categories
				(id, code, name, description, parent_id, retention_years, retention_trigger, mandatory, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name,
			    description = EXCLUDED.description,
			    parent_id = EXCLUDED.parent_id,
			    retention_years = EXCLUDED.retention_years,
			    retention_trigger = EXCLUDED.retention_trigger,
			    mandatory = EXCLUDED.mandatory,
			    sort_order = EXCLUDED.sort_order
			RETURNING id, (xmax = 0)`

		for _, n := range nodes {
			var parentID *uuid.UUID
			if code, ok := parents[n.Code]; ok {
				id, ok := ids[code]
				if !ok {
					return res, fmt.Errorf("parent %s of %s not seeded", code, n.Code)
				}
				parentID = &id
			}

			var (
				id      uuid.UUID
				created bool
			)
			err := tx.QueryRowContext(ctx, q,
				uuid.New(), n.Code, n.Name, n.Description, parentID,
				n.Years, string(n.Trigger), n.Mandatory, n.SortOrder,
			).Scan(&id, &created)
			if err != nil {
				return res, fmt.Errorf("seed category %s: %w", n.Code, err)
			}

			ids[n.Code] = id
			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}
		return res, nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	r.logger.Info("filing plan seeded", "created", result.Created, "updated", result.Updated)
	return result, nil
}

func scanCategory(s repository.Scanner) (Category, error) {
	var (
		c       Category
		trigger string
	)
	err := s.Scan(
		&c.ID,
		&c.Code,
		&c.Name,
		&c.Description,
		&c.ParentID,
		&c.RetentionYears,
		&trigger,
		&c.Mandatory,
		&c.SortOrder,
	)
	if err != nil {
		return c, err
	}
	c.RetentionTrigger, err = retention.ParseTrigger(trigger)
	return c, err
}

func scanType(s repository.Scanner) (DocumentType, error) {
	var t DocumentType
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.CategoryID)
	return t, err
}
