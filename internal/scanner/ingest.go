package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/segment"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/pdf"
	"github.com/JaimeStill/dossier/pkg/vault"
)

// ingest takes one candidate through dedup, storage, splitting,
// classification and filing. Failures are logged with scope, path and hash
// and reported as an outcome; they never stop the run.
func (s *Scanner) ingest(ctx context.Context, st *scopeState, c Candidate, p pass) outcome {
	log := s.logger.With("scope", c.ScopeCode, "path", c.RelPath)

	if p.checkPaths && st.cache.SeenPath(c.RelPath) {
		log.Debug("path already processed")
		return outcomeSeen
	}

	if s.maxSize > 0 && c.Size > s.maxSize {
		log.Error("file rejected", "size", c.Size, "error", ErrTooLarge)
		return outcomeFailed
	}

	hash, _, err := vault.DigestFile(c.Path)
	if err != nil {
		log.Error("hash file failed", "error", err)
		return outcomeFailed
	}
	log = log.With("hash", hash)

	if !st.cache.Claim(hash) {
		log.Info("duplicate content skipped")
		return outcomeDuplicate
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		st.cache.Release(hash)
		log.Error("read file failed", "error", err)
		return outcomeFailed
	}

	cmd := documents.CreateCommand{
		ScopeID:  st.scope.ID,
		Data:     data,
		Hash:     hash,
		Filename: c.Name,
		Source:   p.docSource,
		Status:   documents.StatusUnassigned,
		Metadata: c.Metadata(),
		Ledger:   &documents.LedgerRecord{OriginalPath: c.RelPath},
	}

	segments := s.identify(ctx, st, data, &cmd, log)

	doc, err := s.sys.Documents.Create(ctx, cmd)
	if errors.Is(err, documents.ErrDuplicate) {
		log.Info("content committed by another worker, skipped")
		return outcomeDuplicate
	}
	if err != nil {
		st.cache.Release(hash)
		log.Error("store document failed", "error", err)
		return outcomeFailed
	}

	if p.checkPaths {
		st.cache.AddPath(c.RelPath)
	}
	documentsTotal.WithLabelValues(string(doc.Status)).Inc()
	log.Info("document stored", "document_id", doc.ID, "status", doc.Status)

	results := []documents.Document{*doc}

	if segment.ShouldSplit(segments) {
		parts, err := s.sys.Splitter.Split(ctx, doc, data, segments)
		if err != nil {
			log.Error("split bundle failed, bundle kept whole", "document_id", doc.ID, "error", err)
		} else {
			log.Info("bundle split", "document_id", doc.ID, "parts", len(parts))
			results = parts
		}
	}

	for i := range results {
		s.classifyAndFile(ctx, st, &results[i], log)
	}

	return outcomeProcessed
}

// identify scans PDF content for barcodes and sets the initial status,
// employee and barcode metadata on cmd. With bundle splitting enabled every
// page is scanned and the per-page segments are returned.
func (s *Scanner) identify(ctx context.Context, st *scopeState, data []byte, cmd *documents.CreateCommand, log *slog.Logger) []segment.Segment {
	if !pdf.IsPDF(data) {
		return nil
	}

	mode := barcode.ModeProbe
	if s.cfg.SplitEnabled() {
		mode = barcode.ModeAllPages
	}

	scan := s.sys.Extractor.Scan(ctx, data, mode, 0)
	codes := scan.Codes()

	cmd.Metadata.BarcodePayloads = codes
	if code, ok := scan.ScopeCode(); ok {
		cmd.Metadata.MandantCode = code
	}
	if !scan.Success() {
		cmd.Metadata.BarcodeError = scanError(scan)
	}

	id, found := scan.FirstEmployeeID()

	switch {
	case found:
		cmd.Metadata.DetectedEmployeeID = id

		emp, err := s.sys.Resolver.Resolve(ctx, id, st.scope.ID)
		if err != nil {
			log.Warn("resolve employee failed", "employee_id", id, "error", err)
		}
		if emp != nil {
			cmd.EmployeeID = &emp.ID
			cmd.Status = documents.StatusAssigned
		} else {
			cmd.Status = documents.StatusReviewNeeded
			log.Warn("employee id not resolved, review needed", "employee_id", id)
		}
	case scan.Success() && len(codes) == 0:
		cmd.Status = documents.StatusCompany
	default:
		cmd.Status = documents.StatusReviewNeeded
		log.Warn("no employee id read, review needed",
			"codes", len(codes), "barcode_error", cmd.Metadata.BarcodeError)
	}

	if mode == barcode.ModeAllPages {
		return segment.Group(scan.PageEmployeeIDs())
	}
	return nil
}

func (s *Scanner) classifyAndFile(ctx context.Context, st *scopeState, doc *documents.Document, log *slog.Logger) {
	if _, _, err := s.sys.Classifier.Apply(ctx, st.rules, doc, true); err != nil {
		log.Warn("classify document failed", "document_id", doc.ID, "error", err)
	}

	if doc.EmployeeID == nil || doc.DocumentTypeID == nil {
		return
	}

	res, err := s.sys.Filing.File(ctx, doc)
	switch {
	case errors.Is(err, filing.ErrNotFileable):
		log.Debug("document not fileable", "document_id", doc.ID, "error", err)
	case err != nil:
		log.Error("file document failed", "document_id", doc.ID, "error", err)
	default:
		log.Info("document filed",
			"document_id", doc.ID,
			"file_number", res.File.FileNumber,
			"entry_number", res.Entry.EntryNumber)
	}
}

func scanError(scan barcode.Scan) string {
	if scan.Err != nil {
		return scan.Err.Error()
	}
	for _, p := range scan.Pages {
		if p.Err != nil {
			return fmt.Sprintf("page %d: %v", p.Page, p.Err)
		}
	}
	return "scan failed"
}
