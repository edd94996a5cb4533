// Package maintenance holds the batch operations run over documents that are
// already stored: re-segmenting bundles, repairing unresolved employee
// assignments, re-running classification, filing backlogs and backfilling
// period metadata.
package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/rules"
	"github.com/JaimeStill/dossier/internal/segment"
	"github.com/JaimeStill/dossier/pkg/barcode"
)

// Extractor reads barcodes from PDF content.
type Extractor interface {
	Scan(ctx context.Context, data []byte, mode barcode.Mode, timeout time.Duration) barcode.Scan
}

// Splitter materializes the segments of a bundle as separate documents.
type Splitter interface {
	Split(ctx context.Context, bundle *documents.Document, data []byte, segments []segment.Segment) ([]documents.Document, error)
}

// Classifier loads rule sets and applies them to documents.
type Classifier interface {
	Set(ctx context.Context, scopeID uuid.UUID) (*rules.Set, error)
	Apply(ctx context.Context, set *rules.Set, doc *documents.Document, persist bool) (*rules.Assignment, bool, error)
}

// Filer files documents and lists the filing backlog.
type Filer interface {
	File(ctx context.Context, doc *documents.Document) (*filing.Result, error)
	Pending(ctx context.Context, scopeID *uuid.UUID) ([]uuid.UUID, error)
}

// Systems are the collaborators maintenance operations drive.
type Systems struct {
	Documents  documents.System
	Resolver   segment.Resolver
	Extractor  Extractor
	Splitter   Splitter
	Classifier Classifier
	Filing     Filer
}

// Service runs maintenance operations.
type Service struct {
	sys     Systems
	workers int
	logger  *slog.Logger
}

// New creates a Service. workers bounds the parallelism of barcode-heavy
// operations.
func New(sys Systems, workers int, logger *slog.Logger) *Service {
	return &Service{
		sys:     sys,
		workers: max(workers, 1),
		logger:  logger.With("system", "maintenance"),
	}
}

// Action is what an operation did, or would do, to one document.
type Action string

const (
	ActionSplit      Action = "split"
	ActionAssigned   Action = "assigned"
	ActionClassified Action = "classified"
	ActionFiled      Action = "filed"
	ActionPeriod     Action = "period"
	ActionSkipped    Action = "skipped"
	ActionUnresolved Action = "unresolved"
	ActionFailed     Action = "failed"
)

// Item records the action taken on one document.
type Item struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	Action     Action    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
}

// Report collects the items of one operation. With DryRun set nothing was
// written.
type Report struct {
	DryRun bool   `json:"dry_run"`
	Items  []Item `json:"items"`

	mu sync.Mutex
}

func (r *Report) add(doc *documents.Document, action Action, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Items = append(r.Items, Item{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Action:     action,
		Detail:     detail,
	})
}

// Count returns how many items carry action.
func (r *Report) Count(action Action) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.Items {
		if it.Action == action {
			n++
		}
	}
	return n
}

// ruleSets caches one rule set per scope for the duration of an operation.
type ruleSets struct {
	classifier Classifier
	mu         sync.Mutex
	sets       map[uuid.UUID]*rules.Set
}

func newRuleSets(c Classifier) *ruleSets {
	return &ruleSets{classifier: c, sets: make(map[uuid.UUID]*rules.Set)}
}

func (r *ruleSets) get(ctx context.Context, scopeID uuid.UUID) (*rules.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.sets[scopeID]; ok {
		return set, nil
	}
	set, err := r.classifier.Set(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	r.sets[scopeID] = set
	return set, nil
}

// classifyAndFile runs the classifier over doc and files it when it has an
// employee and a type. Failures are logged; the document stays as stored.
func (s *Service) classifyAndFile(ctx context.Context, sets *ruleSets, doc *documents.Document) {
	set, err := sets.get(ctx, doc.ScopeID)
	if err != nil {
		s.logger.Warn("load rules failed", "scope_id", doc.ScopeID, "error", err)
	} else if _, _, err := s.sys.Classifier.Apply(ctx, set, doc, true); err != nil {
		s.logger.Warn("classify document failed", "document_id", doc.ID, "error", err)
	}

	if doc.EmployeeID == nil || doc.DocumentTypeID == nil {
		return
	}
	if _, err := s.sys.Filing.File(ctx, doc); err != nil && !errors.Is(err, filing.ErrNotFileable) {
		s.logger.Error("file document failed", "document_id", doc.ID, "error", err)
	}
}
