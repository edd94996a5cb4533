package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/scopes"
)

// Periods backfills period year and month from the period folder recorded
// at ingestion, or from the original path when no folder was recorded.
// Documents that already carry a period are left alone unless force is set.
func (s *Service) Periods(ctx context.Context, force, dryRun bool) (*Report, error) {
	docs, err := s.sys.Documents.Query(ctx, documents.Filters{})
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: dryRun}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc := &docs[i]
		md := &doc.Metadata
		if md.PeriodYear != 0 && !force {
			continue
		}

		folder := md.PeriodFolder
		if folder == "" {
			folder = PeriodFolder(md.OriginalPath)
		}

		year, month, ok := documents.ParsePeriod(folder)
		if !ok {
			report.add(doc, ActionSkipped, "no period folder")
			continue
		}
		if md.PeriodYear == year && md.PeriodMonth == month {
			continue
		}

		detail := fmt.Sprintf("%02d/%d", month, year)
		if dryRun {
			report.add(doc, ActionPeriod, detail)
			continue
		}

		md.PeriodFolder, md.PeriodYear, md.PeriodMonth = folder, year, month
		if err := s.sys.Documents.Update(ctx, doc); err != nil {
			report.add(doc, ActionFailed, err.Error())
			continue
		}
		report.add(doc, ActionPeriod, detail)
	}

	return report, nil
}

// PeriodFolder returns the folder directly below the scope folder of an
// archive-relative path, or "" when the path is not scope/period/file shaped.
func PeriodFolder(originalPath string) string {
	parts := strings.Split(originalPath, "/")
	if len(parts) < 3 || !scopes.ValidCode(parts[0]) {
		return ""
	}
	return parts[1]
}
