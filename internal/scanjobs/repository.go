package scanjobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/query"
	"github.com/JaimeStill/dossier/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a scan job repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "scanjobs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count scan jobs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	jobs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query scan jobs: %w", err)
	}

	result := pagination.NewPageResult(jobs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	j, err := repository.QueryOne(ctx, r.db, q, args, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &j, nil
}

func (r *repo) Create(ctx context.Context, source string) (*Job, error) {
	q := `
		INSERT INTO scan_jobs (id, source, status)
		VALUES ($1, $2, $3)
		RETURNING id, source, status, total_files, processed_files, skipped_files,
		          error_files, current_file, error_message, started_at, finished_at`

	j, err := repository.QueryOne(ctx, r.db, q, []any{uuid.New(), source, string(StatusRunning)}, scanJob)
	if err != nil {
		return nil, fmt.Errorf("create scan job: %w", err)
	}

	r.logger.Info("scan job started", "id", j.ID, "source", j.Source)
	return &j, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, p Progress) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET total_files = $2, processed_files = $3, skipped_files = $4,
		    error_files = $5, current_file = $6
		WHERE id = $1 AND status = $7`,
		id, p.Total, p.Processed, p.Skipped, p.Errors, p.Current, string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("update scan job %s: %w", id, err)
	}
	return nil
}

func (r *repo) Finalize(ctx context.Context, id uuid.UUID, p Progress, status Status, message string) (*Job, error) {
	if status != StatusCompleted && status != StatusFailed {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	q := `
		UPDATE scan_jobs
		SET status = $2, total_files = $3, processed_files = $4, skipped_files = $5,
		    error_files = $6, current_file = '', error_message = $7, finished_at = NOW()
		WHERE id = $1 AND status = $8
		RETURNING id, source, status, total_files, processed_files, skipped_files,
		          error_files, current_file, error_message, started_at, finished_at`

	j, err := repository.QueryOne(ctx, r.db, q, []any{
		id, string(status), p.Total, p.Processed, p.Skipped, p.Errors, message, string(StatusRunning),
	}, scanJob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFinalized, id)
	}
	if err != nil {
		return nil, fmt.Errorf("finalize scan job %s: %w", id, err)
	}

	r.logger.Info("scan job finished",
		"id", j.ID, "source", j.Source, "status", j.Status,
		"total", j.TotalFiles, "processed", j.ProcessedFiles,
		"skipped", j.SkippedFiles, "errors", j.ErrorFiles, "duration", j.Duration())
	return &j, nil
}

func (r *repo) FailRunning(ctx context.Context, message string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE status = $3`,
		string(StatusFailed), message, string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("fail running scan jobs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Warn("closed out interrupted scan jobs", "count", n)
	}
	return int(n), nil
}
