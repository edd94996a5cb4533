package scanjobs_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/pkg/pagination"
)

var jobColumns = []string{
	"id", "source", "status", "total_files", "processed_files", "skipped_files",
	"error_files", "current_file", "error_message", "started_at", "finished_at",
}

func newRepo(t *testing.T) (scanjobs.System, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return scanjobs.New(db, slog.New(slog.DiscardHandler), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}), mock
}

func TestCreateStartsRunning(t *testing.T) {
	sys, mock := newRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO scan_jobs")).
		WithArgs(sqlmock.AnyArg(), "archive", "RUNNING").
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(id, "archive", "RUNNING", 0, 0, 0, 0, "", "", now, nil))

	job, err := sys.Create(context.Background(), scanjobs.SourceArchive)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != scanjobs.StatusRunning {
		t.Errorf("status = %s, want RUNNING", job.Status)
	}
	if job.FinishedAt != nil {
		t.Errorf("finished_at = %v, want nil", job.FinishedAt)
	}
}

func TestFinalizeTwiceFails(t *testing.T) {
	sys, mock := newRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE scan_jobs")).
		WillReturnRows(sqlmock.NewRows(jobColumns))

	_, err := sys.Finalize(context.Background(), id, scanjobs.Progress{}, scanjobs.StatusCompleted, "")
	if !errors.Is(err, scanjobs.ErrFinalized) {
		t.Errorf("err = %v, want ErrFinalized", err)
	}
}

func TestFinalizeRejectsRunning(t *testing.T) {
	sys, _ := newRepo(t)

	_, err := sys.Finalize(context.Background(), uuid.New(), scanjobs.Progress{}, scanjobs.StatusRunning, "")
	if !errors.Is(err, scanjobs.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestFindNotFound(t *testing.T) {
	sys, mock := newRepo(t)

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrNoRows)

	if _, err := sys.Find(context.Background(), uuid.New()); !errors.Is(err, scanjobs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFailRunning(t *testing.T) {
	sys, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scan_jobs")).
		WithArgs("FAILED", "interrupted", "RUNNING").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := sys.FailRunning(context.Background(), "interrupted")
	if err != nil {
		t.Fatalf("FailRunning: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}

type fakeJobs struct {
	scanjobs.System

	mu        sync.Mutex
	updates   []scanjobs.Progress
	finalized atomic.Int32
	final     scanjobs.Progress
	status    scanjobs.Status
	message   string
}

func (f *fakeJobs) Create(ctx context.Context, source string) (*scanjobs.Job, error) {
	return &scanjobs.Job{ID: uuid.New(), Source: source, Status: scanjobs.StatusRunning, StartedAt: time.Now()}, nil
}

func (f *fakeJobs) Update(ctx context.Context, id uuid.UUID, p scanjobs.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	return nil
}

func (f *fakeJobs) Finalize(ctx context.Context, id uuid.UUID, p scanjobs.Progress, status scanjobs.Status, message string) (*scanjobs.Job, error) {
	f.finalized.Add(1)
	f.final, f.status, f.message = p, status, message
	now := time.Now()
	return &scanjobs.Job{ID: id, Status: status, ErrorMessage: message, FinishedAt: &now}, nil
}

func (f *fakeJobs) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func TestTrackerCountsConcurrently(t *testing.T) {
	jobs := &fakeJobs{}
	tr, err := scanjobs.Start(context.Background(), jobs, scanjobs.SourceArchive, time.Hour, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	tr.AddTotal(300)

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			tr.Processed()
			tr.Skipped()
			tr.Failed()
		})
	}
	wg.Wait()

	job, err := tr.Finish(context.Background(), nil)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	want := scanjobs.Progress{Total: 300, Processed: 100, Skipped: 100, Errors: 100}
	if jobs.final != want {
		t.Errorf("final = %+v, want %+v", jobs.final, want)
	}
	if job.Status != scanjobs.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", job.Status)
	}
}

func TestTrackerFinishOnce(t *testing.T) {
	jobs := &fakeJobs{}
	tr, err := scanjobs.Start(context.Background(), jobs, scanjobs.SourceManual, time.Hour, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	boom := errors.New("lock lost")
	first, _ := tr.Finish(context.Background(), boom)
	second, _ := tr.Finish(context.Background(), nil)

	if got := jobs.finalized.Load(); got != 1 {
		t.Errorf("finalize calls = %d, want 1", got)
	}
	if first != second {
		t.Error("second Finish returned a different job")
	}
	if jobs.status != scanjobs.StatusFailed || jobs.message != "lock lost" {
		t.Errorf("status = %s message = %q, want FAILED lock lost", jobs.status, jobs.message)
	}
}

func TestTrackerFlushesOnlyWhenDirty(t *testing.T) {
	jobs := &fakeJobs{}
	tr, err := scanjobs.Start(context.Background(), jobs, scanjobs.SourceArchive, 5*time.Millisecond, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	tr.Begin("00000001/202401/a.pdf")

	deadline := time.Now().Add(2 * time.Second)
	for jobs.updateCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := tr.Finish(context.Background(), nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if got := jobs.updateCount(); got != 1 {
		t.Errorf("updates = %d, want 1", got)
	}
	if jobs.updates[0].Current != "00000001/202401/a.pdf" {
		t.Errorf("current = %q", jobs.updates[0].Current)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{scanjobs.ErrNotFound, 404},
		{scanjobs.ErrFinalized, 409},
		{scanjobs.ErrInvalidStatus, 400},
		{errors.New("x"), 500},
	}

	for _, tt := range tests {
		if got := scanjobs.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{
		"source": {"archive"},
		"status": {"failed, running,"},
		"since":  {"2026-05-01T08:00:00Z"},
	}

	f := scanjobs.FiltersFromQuery(values)
	if f.Source == nil || *f.Source != "archive" {
		t.Errorf("Source = %v, want archive", f.Source)
	}
	if !slices.Equal(f.Statuses, []string{"FAILED", "RUNNING"}) {
		t.Errorf("Statuses = %v", f.Statuses)
	}
	if f.Since == nil || f.Since.Hour() != 8 {
		t.Errorf("Since = %v", f.Since)
	}
	if f.Until != nil {
		t.Errorf("Until = %v, want nil", f.Until)
	}
}

// arrayConverter lets []string through as pgx does for = ANY($n).
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ss, ok := v.([]string); ok {
		return ss, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func TestListAppliesFilters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sys := scanjobs.New(db, slog.New(slog.DiscardHandler), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM public.scan_jobs j WHERE j.source = $1 AND j.started_at >= $2 AND j.status = ANY($3)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY j.started_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(jobColumns))

	source := "archive"
	result, err := sys.List(context.Background(), pagination.PageRequest{Page: 1}, scanjobs.Filters{
		Source:   &source,
		Statuses: []string{"FAILED"},
		Since:    &since,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 0 || len(result.Data) != 0 {
		t.Errorf("result = %+v, want empty page", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
