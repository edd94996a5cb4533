package maintenance

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
)

// ReclassifyOptions controls a reclassify run.
type ReclassifyOptions struct {
	// All includes documents that already have a type. Fields already set
	// are still never overwritten.
	All     bool
	ScopeID *uuid.UUID
	DryRun  bool
}

// Reclassify runs the rules over stored documents, by default only those
// without a document type.
func (s *Service) Reclassify(ctx context.Context, opts ReclassifyOptions) (*Report, error) {
	docs, err := s.sys.Documents.Query(ctx, documents.Filters{ScopeID: opts.ScopeID, Untyped: !opts.All})
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: opts.DryRun}
	sets := newRuleSets(s.sys.Classifier)

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc := &docs[i]
		if doc.Status == documents.StatusArchived {
			continue
		}

		set, err := sets.get(ctx, doc.ScopeID)
		if err != nil {
			return report, err
		}

		a, changed, err := s.sys.Classifier.Apply(ctx, set, doc, !opts.DryRun)
		switch {
		case err != nil:
			report.add(doc, ActionFailed, err.Error())
		case a == nil:
			report.add(doc, ActionSkipped, "no rule matched")
		case !changed:
			report.add(doc, ActionSkipped, "unchanged by "+a.RuleName)
		default:
			report.add(doc, ActionClassified, a.RuleName)
		}
	}

	s.logger.Info("reclassify finished",
		"examined", len(docs), "classified", report.Count(ActionClassified), "dry_run", opts.DryRun)
	return report, nil
}
