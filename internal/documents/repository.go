package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/ledger"
	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/query"
	"github.com/JaimeStill/dossier/pkg/repository"
	"github.com/JaimeStill/dossier/pkg/storage"
	"github.com/JaimeStill/dossier/pkg/vault"
)

const blobContentType = "application/octet-stream"

type repo struct {
	db         *sql.DB
	storage    storage.System
	cipher     vault.Cipher
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing System.
func New(
	db *sql.DB,
	store storage.System,
	cipher vault.Cipher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		cipher:     cipher,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Query(ctx context.Context, filters Filters) ([]Document, error) {
	qb := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"})
	filters.Apply(qb)

	q, args := qb.Build()
	docs, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	return find(ctx, r.db, id)
}

func find(ctx context.Context, q repository.Querier, id uuid.UUID) (*Document, error) {
	sql, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, q, sql, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Content(ctx context.Context, doc *Document) ([]byte, error) {
	blob, err := storage.ReadAll(ctx, r.storage, doc.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", doc.ID, err)
	}

	data, err := r.cipher.Decrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", doc.ID, err)
	}

	if got := vault.Digest(data); got != doc.SHA256 {
		r.logger.Error("stored content does not match digest",
			"id", doc.ID, "scope_id", doc.ScopeID, "want", doc.SHA256, "got", got)
		return nil, fmt.Errorf("%w: document %s", ErrDigestMismatch, doc.ID)
	}
	return data, nil
}

type prepared struct {
	id   uuid.UUID
	key  string
	hash string
	cmd  CreateCommand
}

// prepare validates cmd, encrypts its content and uploads the blob.
func (r *repo) prepare(ctx context.Context, cmd CreateCommand) (*prepared, error) {
	if len(cmd.Data) == 0 || strings.TrimSpace(cmd.Filename) == "" {
		return nil, ErrInvalidFile
	}

	hash := vault.Digest(cmd.Data)
	if cmd.Hash != "" && !strings.EqualFold(cmd.Hash, hash) {
		return nil, fmt.Errorf("%w: %s changed while reading", ErrDigestMismatch, cmd.Filename)
	}

	blob, err := r.cipher.Encrypt(cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("encrypt %s: %w", cmd.Filename, err)
	}

	id := uuid.New()
	key := buildBlobKey(cmd.ScopeID, id)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(blob), int64(len(blob)), blobContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	return &prepared{id: id, key: key, hash: hash, cmd: cmd}, nil
}

func (r *repo) compensate(keys ...string) {
	ctx := context.Background()
	for _, key := range keys {
		if err := r.storage.Delete(ctx, key); err != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
		}
	}
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	p, err := r.prepare(ctx, cmd)
	if err != nil {
		return nil, err
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Document, error) {
		if cmd.Ledger != nil {
			exists, err := ledger.ExistsTx(ctx, tx, cmd.ScopeID, p.hash)
			if err != nil {
				return nil, fmt.Errorf("ledger re-check: %w", err)
			}
			if exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicate, p.hash)
			}
		}

		if err := insert(ctx, tx, p); err != nil {
			return nil, err
		}

		if cmd.Ledger != nil {
			err := ledger.Record(ctx, tx, ledger.Entry{
				ScopeID:      cmd.ScopeID,
				Hash:         p.hash,
				OriginalPath: cmd.Ledger.OriginalPath,
				DocumentID:   &p.id,
				Outcome:      ledger.OutcomeDocument,
			})
			if errors.Is(err, ledger.ErrDuplicate) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicate, p.hash)
			}
			if err != nil {
				return nil, fmt.Errorf("record ledger: %w", err)
			}
		}

		return find(ctx, tx, p.id)
	})

	if err != nil {
		r.compensate(p.key)
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created",
		"id", d.ID, "scope", d.ScopeCode, "filename", d.Filename,
		"status", d.Status, "hash", d.SHA256)
	return d, nil
}

func insert(ctx context.Context, tx *sql.Tx, p *prepared) error {
	cmd := p.cmd

	status := cmd.Status
	if status == "" {
		status = StatusUnassigned
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	title := cmd.Title
	if title == "" {
		title = TitleFromFilename(cmd.Filename)
	}

	mediaType := cmd.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(cmd.Data)
	}

	metadata, tags, err := encodeState(cmd.Metadata, cmd.Tags)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (
			id, scope_id, blob_key, size_bytes, sha256, filename, title, extension,
			media_type, document_type_id, employee_id, status, source, document_date,
			metadata, tags, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.id, cmd.ScopeID, p.key, int64(len(cmd.Data)), p.hash, cmd.Filename, title,
		strings.ToLower(filepath.Ext(cmd.Filename)), mediaType, cmd.DocumentTypeID,
		cmd.EmployeeID, string(status), string(cmd.Source), cmd.DocumentDate,
		metadata, tags, cmd.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", cmd.Filename, err)
	}
	return nil
}

func (r *repo) Split(ctx context.Context, cmd SplitCommand) ([]Document, error) {
	if cmd.Bundle == nil || len(cmd.Parts) == 0 {
		return nil, ErrNotSplittable
	}
	bundle := cmd.Bundle

	parts := make([]*prepared, 0, len(cmd.Parts))
	keys := make([]string, 0, len(cmd.Parts))
	for _, part := range cmd.Parts {
		part.ScopeID = bundle.ScopeID
		part.Ledger = nil

		p, err := r.prepare(ctx, part)
		if err != nil {
			r.compensate(keys...)
			return nil, fmt.Errorf("prepare part %s: %w", part.Filename, err)
		}
		parts = append(parts, p)
		keys = append(keys, p.key)
	}

	docs, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]Document, error) {
		var current string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM documents WHERE id = $1 FOR UPDATE", bundle.ID,
		).Scan(&current)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		if Status(current) == StatusArchived {
			return nil, fmt.Errorf("%w: %s is already archived", ErrNotSplittable, bundle.ID)
		}

		created := make([]Document, 0, len(parts))
		splitInto := make([]string, 0, len(parts))
		for _, p := range parts {
			if err := insert(ctx, tx, p); err != nil {
				return nil, err
			}
			d, err := find(ctx, tx, p.id)
			if err != nil {
				return nil, err
			}
			created = append(created, *d)
			splitInto = append(splitInto, p.id.String())
		}

		meta := bundle.Metadata
		meta.Merge(Metadata{SplitInto: splitInto})
		metadata, tags, err := encodeState(meta, bundle.Tags)
		if err != nil {
			return nil, err
		}

		notes := bundle.Notes
		if cmd.Notes != "" {
			notes = strings.TrimSpace(notes + "\n" + cmd.Notes)
		}

		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE documents
			SET status = $2, metadata = $3, tags = $4, notes = $5, updated_at = NOW()
			WHERE id = $1`,
			bundle.ID, string(StatusArchived), metadata, tags, notes,
		); err != nil {
			return nil, fmt.Errorf("archive bundle: %w", err)
		}

		if err := ledger.MarkSplit(ctx, tx, bundle.ScopeID, bundle.ID); err != nil {
			return nil, fmt.Errorf("reconcile ledger: %w", err)
		}

		return created, nil
	})

	if err != nil {
		r.compensate(keys...)
		return nil, err
	}

	bundle.Status = StatusArchived
	r.logger.Info("bundle split",
		"id", bundle.ID, "scope", bundle.ScopeCode, "filename", bundle.Filename, "parts", len(docs))
	return docs, nil
}

func (r *repo) Update(ctx context.Context, doc *Document) error {
	if _, err := ParseStatus(string(doc.Status)); err != nil {
		return err
	}

	metadata, tags, err := encodeState(doc.Metadata, doc.Tags)
	if err != nil {
		return err
	}

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Document, error) {
		var current string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM documents WHERE id = $1 FOR UPDATE", doc.ID,
		).Scan(&current)
		if err != nil {
			return nil, err
		}

		if !CanTransition(Status(current), doc.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, doc.Status)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET document_type_id = $2, employee_id = $3, status = $4, document_date = $5,
			    metadata = $6, tags = $7, notes = $8, updated_at = NOW()
			WHERE id = $1`,
			doc.ID, doc.DocumentTypeID, doc.EmployeeID, string(doc.Status), doc.DocumentDate,
			metadata, tags, doc.Notes,
		)
		if err != nil {
			return nil, err
		}
		return find(ctx, tx, doc.ID)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	*doc = *updated
	return nil
}

func buildBlobKey(scopeID, id uuid.UUID) string {
	return fmt.Sprintf("documents/%s/%s", scopeID, id)
}

// MarkAssigned moves a document to ASSIGNED within the caller's
// transaction. Archived documents are left untouched.
func MarkAssigned(ctx context.Context, e repository.Executor, id uuid.UUID) error {
	_, err := e.ExecContext(ctx, `
		UPDATE documents
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $3`,
		id, string(StatusAssigned), string(StatusArchived),
	)
	return err
}
