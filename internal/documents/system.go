package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/pagination"
)

// System defines the public contract for document operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	// Query returns every document matching filters, oldest first.
	Query(ctx context.Context, filters Filters) ([]Document, error)
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// Content downloads, decrypts and verifies the document's plaintext.
	Content(ctx context.Context, doc *Document) ([]byte, error)

	// Create encrypts and stores new content and inserts the document.
	// With cmd.Ledger set, the ledger is re-checked inside the insert
	// transaction and ErrDuplicate is returned if the content was
	// committed concurrently.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// Split materializes parts and archives the bundle atomically.
	Split(ctx context.Context, cmd SplitCommand) ([]Document, error)

	// Update persists the classification state of doc: type, employee,
	// status, document date, metadata, tags and notes.
	Update(ctx context.Context, doc *Document) error
}
