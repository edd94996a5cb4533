package employees

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/repository"
)

const columns = `id, scope_id, employee_number, first_name, last_name, active,
	external_ids, exit_date, created_at, updated_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an employee repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "employees"),
	}
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Employee, error) {
	e, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM employees WHERE id = $1", []any{id}, scanEmployee)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) FindByNumber(ctx context.Context, scopeID uuid.UUID, number string) (*Employee, error) {
	e, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM employees WHERE scope_id = $1 AND employee_number = $2",
		[]any{scopeID, number}, scanEmployee)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, scopeID uuid.UUID) ([]Employee, error) {
	return repository.QueryMany(ctx, r.db,
		"SELECT "+columns+" FROM employees WHERE scope_id = $1 ORDER BY employee_number",
		[]any{scopeID}, scanEmployee)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Employee, error) {
	number := strings.TrimSpace(cmd.EmployeeNumber)
	if number == "" {
		return nil, ErrInvalidNumber
	}

	ext := cmd.ExternalIDs
	if ext == nil {
		ext = map[string]string{}
	}
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return nil, fmt.Errorf("marshal external ids: %w", err)
	}

	q := `
		INSERT INTO employees (id, scope_id, employee_number, first_name, last_name, external_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + columns

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Employee, error) {
		return repository.QueryOne(ctx, tx, q,
			[]any{uuid.New(), cmd.ScopeID, number, cmd.FirstName, cmd.LastName, extJSON},
			scanEmployee)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("employee created", "id", e.ID, "scope_id", e.ScopeID, "employee_number", e.EmployeeNumber)
	return &e, nil
}

func scanEmployee(s repository.Scanner) (Employee, error) {
	var (
		e   Employee
		ext []byte
	)
	err := s.Scan(
		&e.ID,
		&e.ScopeID,
		&e.EmployeeNumber,
		&e.FirstName,
		&e.LastName,
		&e.Active,
		&ext,
		&e.ExitDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}
	if len(ext) > 0 {
		if err := json.Unmarshal(ext, &e.ExternalIDs); err != nil {
			return e, fmt.Errorf("decode external ids: %w", err)
		}
	}
	return e, nil
}
