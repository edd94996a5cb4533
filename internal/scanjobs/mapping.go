package scanjobs

import (
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/dossier/pkg/query"
	"github.com/JaimeStill/dossier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "scan_jobs", "j").
	Project("id", "ID").
	Project("source", "Source").
	Project("status", "Status").
	Project("total_files", "TotalFiles").
	Project("processed_files", "ProcessedFiles").
	Project("skipped_files", "SkippedFiles").
	Project("error_files", "ErrorFiles").
	Project("current_file", "CurrentFile").
	Project("error_message", "ErrorMessage").
	Project("started_at", "StartedAt").
	Project("finished_at", "FinishedAt")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// Filters contains optional criteria for listing scan jobs. Statuses
// matches any of the given values; Since and Until bound StartedAt.
type Filters struct {
	Source   *string    `json:"source,omitempty"`
	Statuses []string   `json:"statuses,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Source", f.Source).
		WhereRange("StartedAt", f.Since, f.Until)
	return query.WhereAny(b, "Status", f.Statuses)
}

// ParseStatuses splits a comma-separated status list, upper-casing each entry.
func ParseStatuses(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("source"); s != "" {
		f.Source = &s
	}
	f.Statuses = ParseStatuses(values.Get("status"))
	f.Since = query.TimeParam(values, "since")
	f.Until = query.TimeParam(values, "until")
	return f
}

func scanJob(s repository.Scanner) (Job, error) {
	var (
		j      Job
		status string
	)
	err := s.Scan(
		&j.ID,
		&j.Source,
		&status,
		&j.TotalFiles,
		&j.ProcessedFiles,
		&j.SkippedFiles,
		&j.ErrorFiles,
		&j.CurrentFile,
		&j.ErrorMessage,
		&j.StartedAt,
		&j.FinishedAt,
	)
	j.Status = Status(status)
	return j, err
}
