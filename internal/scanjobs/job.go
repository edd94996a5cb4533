// Package scanjobs records the progress and outcome of scan runs.
package scanjobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/pagination"
)

// Status is the state of a scan job.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Source labels what a job scanned.
const (
	SourceArchive = "archive"
	SourceManual  = "manual"
)

// Job is one scan invocation.
type Job struct {
	ID             uuid.UUID  `json:"id"`
	Source         string     `json:"source"`
	Status         Status     `json:"status"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	SkippedFiles   int        `json:"skipped_files"`
	ErrorFiles     int        `json:"error_files"`
	CurrentFile    string     `json:"current_file"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the job ran, or has been running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt != nil {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return time.Since(j.StartedAt)
}

// Progress is a snapshot of a job's counters.
type Progress struct {
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Current   string `json:"current"`
}

// System defines the public contract for scan job storage.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	Create(ctx context.Context, source string) (*Job, error)
	// Update writes progress of a running job.
	Update(ctx context.Context, id uuid.UUID, p Progress) error
	// Finalize moves a running job to its terminal status. A job that is
	// no longer running yields ErrFinalized.
	Finalize(ctx context.Context, id uuid.UUID, p Progress, status Status, message string) (*Job, error)
	// FailRunning marks every running job FAILED with message, returning
	// how many were affected. Used to close out jobs of a crashed process.
	FailRunning(ctx context.Context, message string) (int, error)
}
