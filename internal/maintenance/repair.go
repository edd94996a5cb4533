package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/pkg/barcode"
)

// RepairOptions controls a repair run.
type RepairOptions struct {
	ScopeID *uuid.UUID
	DryRun  bool
	// Rescan reads the first pages of PDFs that carry no detected id.
	Rescan  bool
	Timeout time.Duration
}

// Repair re-resolves REVIEW_NEEDED documents without an employee from the
// id detected at ingestion, or from a fresh barcode probe with Rescan.
// Resolved documents become ASSIGNED and are classified and filed.
func (s *Service) Repair(ctx context.Context, opts RepairOptions) (*Report, error) {
	status := string(documents.StatusReviewNeeded)
	docs, err := s.sys.Documents.Query(ctx, documents.Filters{Status: &status, ScopeID: opts.ScopeID})
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
		if doc.EmployeeID != nil {
			continue
		}
		s.repair(ctx, doc, opts, sets, report)
	}

	s.logger.Info("repair finished",
		"examined", len(docs), "assigned", report.Count(ActionAssigned),
		"unresolved", report.Count(ActionUnresolved), "dry_run", opts.DryRun)
	return report, nil
}

func (s *Service) repair(ctx context.Context, doc *documents.Document, opts RepairOptions, sets *ruleSets, report *Report) {
	id := doc.Metadata.DetectedEmployeeID
	var found documents.Metadata

	if id == "" && opts.Rescan && doc.IsPDF() {
		data, err := s.sys.Documents.Content(ctx, doc)
		if err != nil {
			report.add(doc, ActionFailed, err.Error())
			return
		}

		scan := s.sys.Extractor.Scan(ctx, data, barcode.ModeProbe, opts.Timeout)
		id, _ = scan.FirstEmployeeID()
		found.DetectedEmployeeID = id
		found.BarcodePayloads = scan.Codes()
		if code, ok := scan.ScopeCode(); ok {
			found.MandantCode = code
		}
	}

	if id == "" {
		report.add(doc, ActionSkipped, "no employee id")
		return
	}

	emp, err := s.sys.Resolver.Resolve(ctx, id, doc.ScopeID)
	if err != nil {
		report.add(doc, ActionFailed, err.Error())
		return
	}
	if emp == nil {
		report.add(doc, ActionUnresolved, "id "+id)
		return
	}

	if opts.DryRun {
		report.add(doc, ActionAssigned, emp.EmployeeNumber)
		return
	}

	doc.EmployeeID = &emp.ID
	doc.Status = documents.StatusAssigned
	doc.Metadata.Merge(found)

	if err := s.sys.Documents.Update(ctx, doc); err != nil {
		s.logger.Error("repair document failed", "document_id", doc.ID, "error", err)
		report.add(doc, ActionFailed, err.Error())
		return
	}

	s.classifyAndFile(ctx, sets, doc)
	report.add(doc, ActionAssigned, emp.EmployeeNumber)
}
