package segment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/employees"
	"github.com/JaimeStill/dossier/pkg/pdf"
)

// Resolver maps a raw barcode employee id to an employee of a scope.
// A nil employee with a nil error means the id is unknown.
type Resolver interface {
	Resolve(ctx context.Context, rawID string, scopeID uuid.UUID) (*employees.Employee, error)
}

// PageExtractor cuts the given 1-based pages out of a PDF.
type PageExtractor func(data []byte, pages []int) ([]byte, error)

// Splitter materializes segments of a bundle as separate documents.
type Splitter struct {
	docs     documents.System
	resolver Resolver
	extract  PageExtractor
	logger   *slog.Logger
}

// NewSplitter creates a Splitter. A nil extract uses pdf.ExtractPages.
func NewSplitter(docs documents.System, resolver Resolver, extract PageExtractor, logger *slog.Logger) *Splitter {
	if extract == nil {
		extract = pdf.ExtractPages
	}
	return &Splitter{
		docs:     docs,
		resolver: resolver,
		extract:  extract,
		logger:   logger.With("system", "splitter"),
	}
}

// Split creates one document per segment from the bundle's plaintext and
// archives the bundle, all in one transaction. Parts whose id resolves to
// an employee are ASSIGNED; the rest are REVIEW_NEEDED.
func (s *Splitter) Split(ctx context.Context, bundle *documents.Document, data []byte, segments []Segment) ([]documents.Document, error) {
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: %d segment(s)", documents.ErrNotSplittable, len(segments))
	}
	if !bundle.IsPDF() {
		return nil, fmt.Errorf("%w: %s is not a pdf", documents.ErrNotSplittable, bundle.Filename)
	}

	parts := make([]documents.CreateCommand, 0, len(segments))
	used := make(map[string]bool, len(segments))

	for _, seg := range segments {
		content, err := s.extract(data, seg.Pages)
		if err != nil {
			return nil, fmt.Errorf("extract pages %v of %s: %w", seg.Pages, bundle.Filename, err)
		}

		cmd := documents.CreateCommand{
			ScopeID:        bundle.ScopeID,
			Data:           content,
			Filename:       PartName(bundle.BaseName(), seg, used),
			MediaType:      pdf.MediaType,
			Source:         bundle.Source,
			Status:         documents.StatusReviewNeeded,
			DocumentTypeID: bundle.DocumentTypeID,
			DocumentDate:   bundle.DocumentDate,
			Tags:           slices.Clone(bundle.Tags),
			Notes:          fmt.Sprintf("split from %s, pages %s", bundle.Filename, pageRange(seg.Pages)),
		}

		meta := bundle.Metadata.Lineage()
		meta.Merge(documents.Metadata{
			SplitFrom:          bundle.Filename,
			SourceDocumentID:   bundle.ID.String(),
			Pages:              seg.Pages,
			DetectedEmployeeID: seg.EmployeeID,
		})
		cmd.Metadata = meta

		if seg.Identified() {
			emp, err := s.resolver.Resolve(ctx, seg.EmployeeID, bundle.ScopeID)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", seg.EmployeeID, err)
			}
			if emp != nil {
				cmd.EmployeeID = &emp.ID
				cmd.Status = documents.StatusAssigned
			} else {
				s.logger.Warn("split segment employee unresolved",
					"bundle", bundle.ID, "scope", bundle.ScopeCode, "employee_id", seg.EmployeeID, "pages", seg.Pages)
			}
		}

		parts = append(parts, cmd)
	}

	created, err := s.docs.Split(ctx, documents.SplitCommand{
		Bundle: bundle,
		Parts:  parts,
		Notes:  fmt.Sprintf("split into %d documents", len(parts)),
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PartName names the document for seg: <base>_MA<id>.pdf for identified
// runs, <base>_S<first page>.pdf otherwise. Names already in used get the
// first page appended.
func PartName(base string, seg Segment, used map[string]bool) string {
	first := 0
	if len(seg.Pages) > 0 {
		first = seg.Pages[0]
	}

	name := fmt.Sprintf("%s_S%d.pdf", base, first)
	if seg.Identified() {
		name = fmt.Sprintf("%s_MA%s.pdf", base, seg.EmployeeID)
		if used[name] {
			name = fmt.Sprintf("%s_MA%s_S%d.pdf", base, seg.EmployeeID, first)
		}
	}

	if used != nil {
		used[name] = true
	}
	return name
}

func pageRange(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	first, last := pages[0], pages[len(pages)-1]
	if first == last {
		return strconv.Itoa(first)
	}
	if last-first+1 == len(pages) {
		return fmt.Sprintf("%d-%d", first, last)
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
