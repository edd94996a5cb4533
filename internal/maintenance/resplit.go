package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/segment"
	"github.com/JaimeStill/dossier/pkg/barcode"
)

// ResplitOptions selects and shapes a resplit run.
type ResplitOptions struct {
	// DocumentID limits the run to one document.
	DocumentID *uuid.UUID
	ScopeID    *uuid.UUID
	DryRun     bool
	// PerPage turns every page into its own document instead of grouping
	// pages by detected employee.
	PerPage bool
	// Timeout bounds each page's barcode scan; zero uses the extractor default.
	Timeout time.Duration
}

// Resplit scans every page of stored PDF documents and splits those that
// hold more than one employee's pages. Split parts and archived bundles are
// never resplit.
func (s *Service) Resplit(ctx context.Context, opts ResplitOptions) (*Report, error) {
	docs, err := s.resplitCandidates(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: opts.DryRun}
	sets := newRuleSets(s.sys.Classifier)

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		doc := &docs[i]
		g.Go(func() error {
			s.resplit(context.WithoutCancel(ctx), doc, opts, sets, report)
			return nil
		})
	}

	_ = g.Wait()

	s.logger.Info("resplit finished",
		"examined", len(docs), "split", report.Count(ActionSplit), "dry_run", opts.DryRun)
	return report, ctx.Err()
}

func (s *Service) resplitCandidates(ctx context.Context, opts ResplitOptions) ([]documents.Document, error) {
	var docs []documents.Document

	if opts.DocumentID != nil {
		doc, err := s.sys.Documents.Find(ctx, *opts.DocumentID)
		if err != nil {
			return nil, err
		}
		docs = []documents.Document{*doc}
	} else {
		ext := ".pdf"
		found, err := s.sys.Documents.Query(ctx, documents.Filters{Extension: &ext, ScopeID: opts.ScopeID})
		if err != nil {
			return nil, err
		}
		docs = found
	}

	eligible := docs[:0]
	for _, d := range docs {
		if d.IsPDF() && d.Status != documents.StatusArchived && d.Metadata.SplitFrom == "" {
			eligible = append(eligible, d)
		}
	}
	return eligible, nil
}

func (s *Service) resplit(ctx context.Context, doc *documents.Document, opts ResplitOptions, sets *ruleSets, report *Report) {
	data, err := s.sys.Documents.Content(ctx, doc)
	if err != nil {
		s.logger.Error("load document content failed", "document_id", doc.ID, "error", err)
		report.add(doc, ActionFailed, err.Error())
		return
	}

	scan := s.sys.Extractor.Scan(ctx, data, barcode.ModeAllPages, opts.Timeout)
	ids := scan.PageEmployeeIDs()

	var segments []segment.Segment
	if opts.PerPage {
		if scan.PageCount < 2 {
			report.add(doc, ActionSkipped, "single page")
			return
		}
		segments = segment.PerPage(ids)
	} else {
		segments = segment.Group(ids)
		if !segment.ShouldSplit(segments) {
			report.add(doc, ActionSkipped, "single owner")
			return
		}
	}

	if opts.DryRun {
		report.add(doc, ActionSplit, describe(segments))
		return
	}

	parts, err := s.sys.Splitter.Split(ctx, doc, data, segments)
	if err != nil {
		s.logger.Error("resplit failed", "document_id", doc.ID, "error", err)
		report.add(doc, ActionFailed, err.Error())
		return
	}

	for i := range parts {
		s.classifyAndFile(ctx, sets, &parts[i])
	}

	s.logger.Info("document resplit", "document_id", doc.ID, "parts", len(parts))
	report.add(doc, ActionSplit, describe(segments))
}

func describe(segments []segment.Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		id := seg.EmployeeID
		if id == "" {
			id = "?"
		}
		parts[i] = fmt.Sprintf("%s:%d", id, len(seg.Pages))
	}
	return fmt.Sprintf("%d parts (%s)", len(segments), strings.Join(parts, " "))
}
