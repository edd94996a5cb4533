package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/filing"
)

// AutoFile files every document that has an employee and a categorized type
// but no personnel file entry yet.
func (s *Service) AutoFile(ctx context.Context, scopeID *uuid.UUID, dryRun bool) (*Report, error) {
	ids, err := s.sys.Filing.Pending(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: dryRun}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc, err := s.sys.Documents.Find(ctx, id)
		if err != nil {
			s.logger.Error("load pending document failed", "document_id", id, "error", err)
			continue
		}

		if dryRun {
			report.add(doc, ActionFiled, "pending")
			continue
		}

		res, err := s.sys.Filing.File(ctx, doc)
		switch {
		case errors.Is(err, filing.ErrNotFileable):
			report.add(doc, ActionSkipped, err.Error())
		case err != nil:
			report.add(doc, ActionFailed, err.Error())
		case !res.Created:
			report.add(doc, ActionSkipped, "already filed")
		default:
			report.add(doc, ActionFiled, fmt.Sprintf("%s #%d", res.File.FileNumber, res.Entry.EntryNumber))
		}
	}

	s.logger.Info("auto-file finished",
		"pending", len(ids), "filed", report.Count(ActionFiled), "dry_run", dryRun)
	return report, nil
}
