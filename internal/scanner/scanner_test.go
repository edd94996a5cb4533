package scanner_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/employees"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/ledger"
	"github.com/JaimeStill/dossier/internal/rules"
	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/internal/scopes"
	"github.com/JaimeStill/dossier/internal/segment"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/lock"
	"github.com/JaimeStill/dossier/pkg/vault"
)

var discard = slog.New(slog.DiscardHandler)

type fakeScopes struct {
	scopes.System

	mu    sync.Mutex
	codes map[string]*scopes.Scope
}

func (f *fakeScopes) Ensure(ctx context.Context, code string) (*scopes.Scope, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codes == nil {
		f.codes = make(map[string]*scopes.Scope)
	}
	if s, ok := f.codes[code]; ok {
		return s, false, nil
	}
	s := &scopes.Scope{ID: uuid.New(), Code: code, Name: scopes.DefaultName(code)}
	f.codes[code] = s
	return s, true, nil
}

// fakeDocs stores created documents and serves as the ledger's backing set.
type fakeDocs struct {
	documents.System

	mu      sync.Mutex
	created []documents.Document
	paths   map[uuid.UUID]map[string]struct{}
	hashes  map[uuid.UUID]map[string]struct{}
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		paths:  make(map[uuid.UUID]map[string]struct{}),
		hashes: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (f *fakeDocs) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cmd.Hash != vault.Digest(cmd.Data) {
		return nil, documents.ErrDigestMismatch
	}
	if _, ok := f.hashes[cmd.ScopeID][cmd.Hash]; ok {
		return nil, documents.ErrDuplicate
	}
	if f.hashes[cmd.ScopeID] == nil {
		f.hashes[cmd.ScopeID] = make(map[string]struct{})
		f.paths[cmd.ScopeID] = make(map[string]struct{})
	}
	f.hashes[cmd.ScopeID][cmd.Hash] = struct{}{}
	if cmd.Ledger != nil {
		f.paths[cmd.ScopeID][cmd.Ledger.OriginalPath] = struct{}{}
	}

	doc := documents.Document{
		ID:         uuid.New(),
		ScopeID:    cmd.ScopeID,
		SHA256:     cmd.Hash,
		Filename:   cmd.Filename,
		Extension:  strings.ToLower(filepath.Ext(cmd.Filename)),
		Status:     cmd.Status,
		Source:     cmd.Source,
		EmployeeID: cmd.EmployeeID,
		Metadata:   cmd.Metadata,
	}
	f.created = append(f.created, doc)
	return &doc, nil
}

func (f *fakeDocs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeDocs) byName(name string) *documents.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.created {
		if f.created[i].Filename == name {
			return &f.created[i]
		}
	}
	return nil
}

type fakeLedger struct {
	ledger.System
	docs *fakeDocs
}

func (f *fakeLedger) NewCache(ctx context.Context, scopeID uuid.UUID) (*ledger.Cache, error) {
	f.docs.mu.Lock()
	defer f.docs.mu.Unlock()

	paths := make(map[string]struct{})
	for p := range f.docs.paths[scopeID] {
		paths[p] = struct{}{}
	}
	hashes := make(map[string]struct{})
	for h := range f.docs.hashes[scopeID] {
		hashes[h] = struct{}{}
	}
	return ledger.NewCache(paths, hashes), nil
}

type fakeJobs struct {
	scanjobs.System

	mu   sync.Mutex
	jobs []*scanjobs.Job
}

func (f *fakeJobs) Create(ctx context.Context, source string) (*scanjobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := &scanjobs.Job{ID: uuid.New(), Source: source, Status: scanjobs.StatusRunning, StartedAt: time.Now()}
	f.jobs = append(f.jobs, j)
	return j, nil
}

func (f *fakeJobs) Update(ctx context.Context, id uuid.UUID, p scanjobs.Progress) error {
	return nil
}

func (f *fakeJobs) Finalize(ctx context.Context, id uuid.UUID, p scanjobs.Progress, status scanjobs.Status, message string) (*scanjobs.Job, error) {
	now := time.Now()
	return &scanjobs.Job{
		ID: id, Status: status, ErrorMessage: message,
		TotalFiles: p.Total, ProcessedFiles: p.Processed, SkippedFiles: p.Skipped, ErrorFiles: p.Errors,
		CurrentFile: p.Current, FinishedAt: &now,
	}, nil
}

func (f *fakeJobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type fakeResolver map[string]*employees.Employee

func (f fakeResolver) Resolve(ctx context.Context, rawID string, scopeID uuid.UUID) (*employees.Employee, error) {
	return f[rawID], nil
}

// fakeExtractor returns canned scans keyed by file content.
type fakeExtractor map[string]barcode.Scan

func (f fakeExtractor) Scan(ctx context.Context, data []byte, mode barcode.Mode, timeout time.Duration) barcode.Scan {
	return f[string(data)]
}

type fakeSplitter struct {
	mu       sync.Mutex
	segments [][]segment.Segment
}

func (f *fakeSplitter) Split(ctx context.Context, bundle *documents.Document, data []byte, segments []segment.Segment) ([]documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segments = append(f.segments, segments)

	parts := make([]documents.Document, len(segments))
	for i, s := range segments {
		parts[i] = documents.Document{ID: uuid.New(), ScopeID: bundle.ScopeID, Filename: s.EmployeeID + ".pdf"}
	}
	return parts, nil
}

type fakeClassifier struct {
	mu      sync.Mutex
	applied int
}

func (f *fakeClassifier) Set(ctx context.Context, scopeID uuid.UUID) (*rules.Set, error) {
	return rules.NewSet(nil, discard), nil
}

func (f *fakeClassifier) Apply(ctx context.Context, set *rules.Set, doc *documents.Document, persist bool) (*rules.Assignment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied++
	return nil, false, nil
}

type fakeFiler struct{}

func (fakeFiler) File(ctx context.Context, doc *documents.Document) (*filing.Result, error) {
	return nil, filing.ErrNotFileable
}

type fixture struct {
	archive    string
	manual     string
	docs       *fakeDocs
	jobs       *fakeJobs
	splitter   *fakeSplitter
	classifier *fakeClassifier
	locker     *lock.Locker
	cfg        *scanner.Config
	extractor  fakeExtractor
	resolver   fakeResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &scanner.Config{
		ArchiveRoot:   t.TempDir(),
		ManualRoot:    t.TempDir(),
		ManualScope:   "00000009",
		Workers:       4,
		FlushInterval: "1h",
		RetryBackoff:  "1ms",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config: %v", err)
	}

	return &fixture{
		archive:    cfg.ArchiveRoot,
		manual:     cfg.ManualRoot,
		docs:       newFakeDocs(),
		jobs:       &fakeJobs{},
		splitter:   &fakeSplitter{},
		classifier: &fakeClassifier{},
		locker:     lock.New(lock.NewMemoryStore(), "dossier:lock:", discard),
		cfg:        cfg,
		extractor:  fakeExtractor{},
		resolver:   fakeResolver{},
	}
}

func (f *fixture) scanner() *scanner.Scanner {
	return scanner.New(scanner.Systems{
		Scopes:     &fakeScopes{},
		Ledger:     &fakeLedger{docs: f.docs},
		Documents:  f.docs,
		Jobs:       f.jobs,
		Resolver:   f.resolver,
		Extractor:  f.extractor,
		Splitter:   f.splitter,
		Classifier: f.classifier,
		Filing:     fakeFiler{},
		Locker:     f.locker,
	}, f.cfg, 0, discard)
}

func TestRunArchiveIsIdempotent(t *testing.T) {
	f := newFixture(t)

	writeFile(t, f.archive, "00000001/202401/a.txt", "same bytes")
	writeFile(t, f.archive, "00000001/202402/copy-of-a.txt", "same bytes")
	writeFile(t, f.archive, "00000001/202402/b.txt", "other bytes")

	s := f.scanner()

	first, err := s.RunArchive(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.Acquired {
		t.Fatal("first run did not acquire the lock")
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"total", first.Job.TotalFiles, 3},
		{"processed", first.Job.ProcessedFiles, 2},
		{"skipped", first.Job.SkippedFiles, 1},
		{"errors", first.Job.ErrorFiles, 0},
		{"documents", f.docs.count(), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("first run %s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	second, err := s.RunArchive(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Job.ProcessedFiles != 0 || second.Job.SkippedFiles != 3 {
		t.Errorf("second run processed=%d skipped=%d, want 0/3",
			second.Job.ProcessedFiles, second.Job.SkippedFiles)
	}
	if got := f.docs.count(); got != 2 {
		t.Errorf("documents after second run = %d, want 2", got)
	}
	if second.Job.Status != scanjobs.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", second.Job.Status)
	}
}

func TestRunArchiveRecordsCurrentFile(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.archive, "00000001/202401/a.txt", "only file")

	res, err := f.scanner().RunArchive(context.Background())
	if err != nil {
		t.Fatalf("RunArchive: %v", err)
	}
	if res.Job.CurrentFile != "00000001/202401/a.txt" {
		t.Errorf("current file = %q, want 00000001/202401/a.txt", res.Job.CurrentFile)
	}
}

func TestRunArchiveContinuesPastUnreadableFolder(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	f := newFixture(t)
	writeFile(t, f.archive, "00000001/202401/a.txt", "readable")
	writeFile(t, f.archive, "00000001/202402/b.txt", "locked away")

	locked := filepath.Join(f.archive, "00000001", "202402")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	res, err := f.scanner().RunArchive(context.Background())
	if err != nil {
		t.Fatalf("RunArchive: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"status", res.Job.Status, scanjobs.StatusCompleted},
		{"total", res.Job.TotalFiles, 2},
		{"processed", res.Job.ProcessedFiles, 1},
		{"errors", res.Job.ErrorFiles, 1},
		{"documents", f.docs.count(), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRunArchiveStatuses(t *testing.T) {
	f := newFixture(t)
	emp := &employees.Employee{ID: uuid.New(), EmployeeNumber: "00001234"}
	f.resolver["1234"] = emp

	ok := func(codes ...string) barcode.Scan {
		var ids []string
		for _, c := range codes {
			if id, found := barcode.ParseEmployeeID(c); found {
				ids = append(ids, id)
			}
		}
		return barcode.Scan{PageCount: 1, Pages: []barcode.PageResult{
			{Page: 1, Result: barcode.Result{Success: true, Codes: codes, EmployeeIDs: ids}},
		}}
	}

	f.extractor["%PDF-company"] = ok()
	f.extractor["%PDF-known"] = ok("1234")
	f.extractor["%PDF-unknown"] = ok("9999")
	f.extractor["%PDF-broken"] = barcode.Scan{Err: errors.New("cannot open")}

	writeFile(t, f.archive, "00000001/202401/company.pdf", "%PDF-company")
	writeFile(t, f.archive, "00000001/202401/known.pdf", "%PDF-known")
	writeFile(t, f.archive, "00000001/202401/unknown.pdf", "%PDF-unknown")
	writeFile(t, f.archive, "00000001/202401/broken.pdf", "%PDF-broken")
	writeFile(t, f.archive, "00000001/202401/notes.txt", "plain")

	if _, err := f.scanner().RunArchive(context.Background()); err != nil {
		t.Fatalf("RunArchive: %v", err)
	}

	tests := []struct {
		file     string
		status   documents.Status
		employee bool
	}{
		{"company.pdf", documents.StatusCompany, false},
		{"known.pdf", documents.StatusAssigned, true},
		{"unknown.pdf", documents.StatusReviewNeeded, false},
		{"broken.pdf", documents.StatusReviewNeeded, false},
		{"notes.txt", documents.StatusUnassigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			doc := f.docs.byName(tt.file)
			if doc == nil {
				t.Fatal("document not created")
			}
			if doc.Status != tt.status {
				t.Errorf("status = %s, want %s", doc.Status, tt.status)
			}
			if (doc.EmployeeID != nil) != tt.employee {
				t.Errorf("employee set = %v, want %v", doc.EmployeeID != nil, tt.employee)
			}
			if doc.Metadata.PeriodYear != 2024 || doc.Metadata.PeriodMonth != 1 {
				t.Errorf("period = %d/%d, want 2024/1", doc.Metadata.PeriodYear, doc.Metadata.PeriodMonth)
			}
		})
	}

	if got := f.docs.byName("unknown.pdf").Metadata.DetectedEmployeeID; got != "9999" {
		t.Errorf("detected id = %q, want 9999", got)
	}
	if f.docs.byName("broken.pdf").Metadata.BarcodeError == "" {
		t.Error("barcode error not recorded")
	}
	if got := f.classifier.applied; got != 5 {
		t.Errorf("classified = %d, want 5", got)
	}
}

func TestRunArchiveSplitsBundles(t *testing.T) {
	f := newFixture(t)
	split := true
	f.cfg.SplitBundles = &split

	page := func(n int, id string) barcode.PageResult {
		return barcode.PageResult{Page: n, Result: barcode.Result{
			Success: true, Codes: []string{id}, EmployeeIDs: []string{id},
		}}
	}
	f.extractor["%PDF-bundle"] = barcode.Scan{PageCount: 3, Pages: []barcode.PageResult{
		page(1, "1111"), page(2, "1111"), page(3, "2222"),
	}}

	writeFile(t, f.archive, "00000001/202401/bundle.pdf", "%PDF-bundle")

	if _, err := f.scanner().RunArchive(context.Background()); err != nil {
		t.Fatalf("RunArchive: %v", err)
	}

	if len(f.splitter.segments) != 1 {
		t.Fatalf("split calls = %d, want 1", len(f.splitter.segments))
	}
	segs := f.splitter.segments[0]
	if len(segs) != 2 || segs[0].EmployeeID != "1111" || segs[1].EmployeeID != "2222" {
		t.Errorf("segments = %+v", segs)
	}
	if got := f.classifier.applied; got != 2 {
		t.Errorf("classified = %d, want 2 parts", got)
	}
}

func TestRunSkippedWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.archive, "00000001/202401/a.txt", "a")

	lease, err := f.locker.Acquire(context.Background(), scanner.LockArchive, time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lease.Release(context.Background())

	res, err := f.scanner().RunArchive(context.Background())
	if err != nil {
		t.Fatalf("RunArchive: %v", err)
	}
	if res.Acquired {
		t.Error("Acquired = true, want false")
	}
	if f.jobs.count() != 0 || f.docs.count() != 0 {
		t.Errorf("jobs = %d documents = %d, want 0/0", f.jobs.count(), f.docs.count())
	}
}

func TestRunArchiveMissingRoot(t *testing.T) {
	f := newFixture(t)
	f.cfg.ArchiveRoot = filepath.Join(f.archive, "absent")

	_, err := f.scanner().ScheduledArchive(context.Background())
	if !errors.Is(err, scanner.ErrArchiveRoot) {
		t.Fatalf("err = %v, want ErrArchiveRoot", err)
	}
	if f.jobs.count() != 0 {
		t.Errorf("jobs = %d, want 0", f.jobs.count())
	}
}

func TestRunManualMovesFiles(t *testing.T) {
	f := newFixture(t)
	f.cfg.Workers = 1

	writeFile(t, f.manual, "a.txt", "manual bytes")
	writeFile(t, f.manual, "b.txt", "manual bytes")
	writeFile(t, f.manual, "skip.exe", "x")

	res, err := f.scanner().RunManual(context.Background())
	if err != nil {
		t.Fatalf("RunManual: %v", err)
	}
	if res.Job.ProcessedFiles != 1 || res.Job.SkippedFiles != 1 {
		t.Errorf("processed=%d skipped=%d, want 1/1", res.Job.ProcessedFiles, res.Job.SkippedFiles)
	}

	entries, err := os.ReadDir(filepath.Join(f.manual, "processed"))
	if err != nil {
		t.Fatalf("read processed: %v", err)
	}

	var moved, dup bool
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), "_dup_b.txt"):
			dup = true
		case strings.HasSuffix(e.Name(), "_a.txt"):
			moved = true
		}
	}
	if !moved || !dup {
		t.Errorf("processed entries = %v, want a moved and b as duplicate", entries)
	}

	if _, err := os.Stat(filepath.Join(f.manual, "skip.exe")); err != nil {
		t.Errorf("unaccepted file was moved: %v", err)
	}

	doc := f.docs.byName("a.txt")
	if doc == nil || doc.Source != documents.SourceManual {
		t.Errorf("manual document = %+v", doc)
	}
}

func TestRetry(t *testing.T) {
	f := newFixture(t)
	s := f.scanner()

	t.Run("retries outright failures", func(t *testing.T) {
		calls := 0
		_, err := s.Retry(context.Background(), "test", func(ctx context.Context) (scanner.Result, error) {
			calls++
			if calls < 3 {
				return scanner.Result{}, errors.New("database down")
			}
			return scanner.Result{Acquired: true}, nil
		})
		if err != nil {
			t.Fatalf("Retry: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		_, err := s.Retry(context.Background(), "test", func(ctx context.Context) (scanner.Result, error) {
			calls++
			return scanner.Result{}, errors.New("database down")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("configuration errors are final", func(t *testing.T) {
		calls := 0
		_, _ = s.Retry(context.Background(), "test", func(ctx context.Context) (scanner.Result, error) {
			calls++
			return scanner.Result{}, scanner.ErrManualRoot
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
