package filing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/categories"
	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/employees"
	"github.com/JaimeStill/dossier/internal/retention"
	"github.com/JaimeStill/dossier/pkg/lock"
	"github.com/JaimeStill/dossier/pkg/repository"
)

const fileColumns = `id, employee_id, file_number, status, opened_at, closed_at,
	retention_until, last_entry_number, created_at, updated_at`

const entryColumns = `id, personnel_file_id, document_id, category_id, entry_number,
	document_date, notes, retention_until, created_at`

type repo struct {
	db         *sql.DB
	categories categories.System
	employees  employees.System
	files      *lock.Keyed
	cfg        Config
	logger     *slog.Logger
}

// New creates the filing engine.
func New(
	db *sql.DB,
	cats categories.System,
	emps employees.System,
	cfg Config,
	logger *slog.Logger,
) System {
	return &repo{
		db:         db,
		categories: cats,
		employees:  emps,
		files:      lock.NewKeyed(),
		cfg:        cfg,
		logger:     logger.With("system", "filing"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

type target struct {
	employee *employees.Employee
	category *categories.Category
	docType  *categories.DocumentType
}

func (r *repo) resolve(ctx context.Context, doc *documents.Document) (*target, error) {
	if doc.EmployeeID == nil || doc.DocumentTypeID == nil {
		return nil, ErrNotFileable
	}

	dt, err := r.categories.FindType(ctx, *doc.DocumentTypeID)
	if err != nil {
		return nil, fmt.Errorf("document type of %s: %w", doc.ID, err)
	}
	if dt.CategoryID == nil {
		return nil, ErrNotFileable
	}

	cat, err := r.categories.FindCategory(ctx, *dt.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("category of %s: %w", doc.ID, err)
	}

	emp, err := r.employees.Find(ctx, *doc.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("employee of %s: %w", doc.ID, err)
	}

	return &target{employee: emp, category: cat, docType: dt}, nil
}

func (r *repo) File(ctx context.Context, doc *documents.Document) (*Result, error) {
	if doc.Status == documents.StatusArchived {
		return nil, ErrNotFileable
	}

	t, err := r.resolve(ctx, doc)
	if err != nil {
		return nil, err
	}

	unlock := r.files.Lock(t.employee.ID.String())
	defer unlock()

	result, err := repository.WithRetry(ctx, r.db, nil, r.cfg.RetryAttempts, func(tx *sql.Tx) (*Result, error) {
		return r.file(ctx, tx, doc, t)
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		doc.Status = documents.StatusAssigned
		r.logger.Info("document filed",
			"document_id", doc.ID, "scope", doc.ScopeCode, "file_number", result.File.FileNumber,
			"entry_number", result.Entry.EntryNumber, "category", t.category.Code)
	}
	return result, nil
}

func (r *repo) file(ctx context.Context, tx *sql.Tx, doc *documents.Document, t *target) (*Result, error) {
	pf, err := ensureFile(ctx, tx, t.employee, doc.ScopeCode)
	if err != nil {
		return nil, err
	}

	existing, err := repository.QueryOne(ctx, tx,
		"SELECT "+entryColumns+" FROM personnel_file_entries WHERE personnel_file_id = $1 AND document_id = $2",
		[]any{pf.ID, doc.ID}, scanEntry)
	switch {
	case err == nil:
		return &Result{Entry: existing, File: pf}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check existing entry: %w", err)
	}

	number := pf.LastEntryNumber + 1
	if err := repository.ExecExpectOne(ctx, tx,
		"UPDATE personnel_files SET last_entry_number = $2, updated_at = NOW() WHERE id = $1",
		pf.ID, number,
	); err != nil {
		return nil, fmt.Errorf("advance entry counter: %w", err)
	}
	pf.LastEntryNumber = number

	now := time.Now().UTC()
	until := retention.Until(t.category.Rule(), retention.Events{
		Created:      now,
		DocumentDate: doc.DocumentDate,
		Closed:       pf.ClosedAt,
	})

	entry, err := repository.QueryOne(ctx, tx, `
		INSERT INTO personnel_file_entries (
			id, personnel_file_id, document_id, category_id, entry_number,
			document_date, notes, retention_until, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+entryColumns,
		[]any{
			uuid.New(), pf.ID, doc.ID, t.category.ID, number,
			doc.DocumentDate, "Automatisch abgelegt aus " + t.docType.Name, until, now,
		}, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := documents.MarkAssigned(ctx, tx, doc.ID); err != nil {
		return nil, fmt.Errorf("mark document assigned: %w", err)
	}

	if err := r.recompute(ctx, tx, pf); err != nil {
		return nil, err
	}

	return &Result{Entry: entry, File: pf, Created: true}, nil
}

// ensureFile returns the employee's personnel file locked for update,
// creating it on first use.
func ensureFile(ctx context.Context, tx *sql.Tx, emp *employees.Employee, scopeCode string) (*PersonnelFile, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO personnel_files (id, employee_id, file_number, opened_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id) DO NOTHING`,
		uuid.New(), emp.ID, FileNumber(scopeCode, emp.EmployeeNumber), retention.Date(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure personnel file: %w", err)
	}

	pf, err := repository.QueryOne(ctx, tx,
		"SELECT "+fileColumns+" FROM personnel_files WHERE employee_id = $1 FOR UPDATE",
		[]any{emp.ID}, scanFile)
	if err != nil {
		return nil, fmt.Errorf("lock personnel file: %w", err)
	}
	return &pf, nil
}

// recompute refreshes every entry's retention date against the file's
// current state, then sets the file's date to the latest across them. Exit
// entries only get a date here, once the file is closed.
func (r *repo) recompute(ctx context.Context, tx *sql.Tx, pf *PersonnelFile) error {
	entries, err := repository.QueryMany(ctx, tx, `
		SELECT e.id, e.retention_until, e.created_at, e.document_date, c.retention_years, c.retention_trigger
		FROM personnel_file_entries e
		JOIN file_categories c ON c.id = e.category_id
		WHERE e.personnel_file_id = $1`,
		[]any{pf.ID}, scanStoredRetention)
	if err != nil {
		return fmt.Errorf("load retention entries: %w", err)
	}

	views := make([]retention.Entry, len(entries))
	for i, e := range entries {
		views[i] = e.Entry
		until := retention.Until(e.Rule, retention.Events{
			Created:      e.Created,
			DocumentDate: e.DocumentDate,
			Closed:       pf.ClosedAt,
		})
		if sameDate(until, e.stored) {
			continue
		}
		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE personnel_file_entries SET retention_until = $2 WHERE id = $1",
			e.id, until,
		); err != nil {
			return fmt.Errorf("update entry retention: %w", err)
		}
	}

	pf.RetentionUntil = retention.FileUntil(pf.ClosedAt, views, r.cfg.FallbackYears)

	if err := repository.ExecExpectOne(ctx, tx,
		"UPDATE personnel_files SET retention_until = $2, updated_at = NOW() WHERE id = $1",
		pf.ID, pf.RetentionUntil,
	); err != nil {
		return fmt.Errorf("update file retention: %w", err)
	}
	return nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return retention.Date(*a).Equal(retention.Date(*b))
}

func (r *repo) Close(ctx context.Context, fileID uuid.UUID, closedAt time.Time) (*PersonnelFile, error) {
	pf, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*PersonnelFile, error) {
		pf, err := repository.QueryOne(ctx, tx,
			"SELECT "+fileColumns+" FROM personnel_files WHERE id = $1 FOR UPDATE",
			[]any{fileID}, scanFile)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		if pf.Status != FileActive {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotActive, pf.FileNumber, pf.Status)
		}

		closed := retention.Date(closedAt)
		pf.ClosedAt = &closed
		pf.Status = FileInactive

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE personnel_files SET status = $2, closed_at = $3, updated_at = NOW() WHERE id = $1",
			pf.ID, string(pf.Status), pf.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("close personnel file: %w", err)
		}

		if err := r.recompute(ctx, tx, &pf); err != nil {
			return nil, err
		}
		return &pf, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("personnel file closed",
		"id", pf.ID, "file_number", pf.FileNumber, "closed_at", pf.ClosedAt, "retention_until", pf.RetentionUntil)
	return pf, nil
}

func (r *repo) FindFile(ctx context.Context, id uuid.UUID) (*PersonnelFile, error) {
	pf, err := repository.QueryOne(ctx, r.db,
		"SELECT "+fileColumns+" FROM personnel_files WHERE id = $1", []any{id}, scanFile)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &pf, nil
}

func (r *repo) FindFileByEmployee(ctx context.Context, employeeID uuid.UUID) (*PersonnelFile, error) {
	pf, err := repository.QueryOne(ctx, r.db,
		"SELECT "+fileColumns+" FROM personnel_files WHERE employee_id = $1", []any{employeeID}, scanFile)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &pf, nil
}

func (r *repo) Entries(ctx context.Context, fileID uuid.UUID) ([]Entry, error) {
	return repository.QueryMany(ctx, r.db,
		"SELECT "+entryColumns+" FROM personnel_file_entries WHERE personnel_file_id = $1 ORDER BY entry_number",
		[]any{fileID}, scanEntry)
}

func (r *repo) Pending(ctx context.Context, scopeID *uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id
		FROM documents d
		JOIN document_types t ON t.id = d.document_type_id
		WHERE d.employee_id IS NOT NULL
		  AND t.category_id IS NOT NULL
		  AND d.status <> 'ARCHIVED'
		  AND ($1::uuid IS NULL OR d.scope_id = $1)
		  AND NOT EXISTS (
		    SELECT 1 FROM personnel_file_entries e WHERE e.document_id = d.id
		  )
		ORDER BY d.created_at`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("query pending documents: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanFile(s repository.Scanner) (PersonnelFile, error) {
	var (
		pf     PersonnelFile
		status string
	)
	err := s.Scan(
		&pf.ID,
		&pf.EmployeeID,
		&pf.FileNumber,
		&status,
		&pf.OpenedAt,
		&pf.ClosedAt,
		&pf.RetentionUntil,
		&pf.LastEntryNumber,
		&pf.CreatedAt,
		&pf.UpdatedAt,
	)
	pf.Status = FileStatus(status)
	return pf, err
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.PersonnelFileID,
		&e.DocumentID,
		&e.CategoryID,
		&e.EntryNumber,
		&e.DocumentDate,
		&e.Notes,
		&e.RetentionUntil,
		&e.CreatedAt,
	)
	return e, err
}

type storedRetention struct {
	retention.Entry
	id     uuid.UUID
	stored *time.Time
}

func scanStoredRetention(s repository.Scanner) (storedRetention, error) {
	var (
		e       storedRetention
		trigger string
	)
	if err := s.Scan(&e.id, &e.stored, &e.Created, &e.DocumentDate, &e.Rule.Years, &trigger); err != nil {
		return e, err
	}
	t, err := retention.ParseTrigger(trigger)
	if err != nil {
		return e, err
	}
	e.Rule.Trigger = t
	return e, nil
}
