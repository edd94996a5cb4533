// Package scanner ingests files from the archive tree and the manual input
// folder. Listing is sequential; each file is then hashed, checked against
// the content ledger, scanned for barcodes, stored, split, classified and
// filed by a bounded worker pool, all under a named distributed lock.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/ledger"
	"github.com/JaimeStill/dossier/internal/rules"
	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scopes"
	"github.com/JaimeStill/dossier/internal/segment"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/lock"
)

// Stable lock names, one per job type.
const (
	LockArchive = "scan:archive"
	LockManual  = "scan:manual"
)

// Extractor reads barcodes from PDF content.
type Extractor interface {
	Scan(ctx context.Context, data []byte, mode barcode.Mode, timeout time.Duration) barcode.Scan
}

// Splitter materializes the segments of a bundle as separate documents.
type Splitter interface {
	Split(ctx context.Context, bundle *documents.Document, data []byte, segments []segment.Segment) ([]documents.Document, error)
}

// Classifier loads a scope's rules once per run and applies them to documents.
type Classifier interface {
	Set(ctx context.Context, scopeID uuid.UUID) (*rules.Set, error)
	Apply(ctx context.Context, set *rules.Set, doc *documents.Document, persist bool) (*rules.Assignment, bool, error)
}

// Filer files classified documents into personnel files.
type Filer interface {
	File(ctx context.Context, doc *documents.Document) (*filing.Result, error)
}

// Systems are the collaborators a Scanner drives.
type Systems struct {
	Scopes     scopes.System
	Ledger     ledger.System
	Documents  documents.System
	Jobs       scanjobs.System
	Resolver   segment.Resolver
	Extractor  Extractor
	Splitter   Splitter
	Classifier Classifier
	Filing     Filer
	Locker     *lock.Locker
}

// Scanner runs archive and manual-input scans.
type Scanner struct {
	sys     Systems
	cfg     *Config
	filter  Filter
	maxSize int64
	logger  *slog.Logger
}

// New creates a Scanner. Files larger than maxFileSize are rejected before
// they are read; zero disables the check.
func New(sys Systems, cfg *Config, maxFileSize int64, logger *slog.Logger) *Scanner {
	return &Scanner{
		sys:     sys,
		cfg:     cfg,
		filter:  NewFilter(cfg.Extensions),
		maxSize: maxFileSize,
		logger:  logger.With("system", "scanner"),
	}
}

// Result reports the outcome of one scan invocation. Acquired is false when
// the run was skipped because another worker held the lock; Job is then nil.
type Result struct {
	Acquired bool          `json:"acquired"`
	Job      *scanjobs.Job `json:"job,omitempty"`
}

type outcome string

const (
	outcomeProcessed outcome = "processed"
	outcomeSeen      outcome = "seen"
	outcomeDuplicate outcome = "duplicate"
	outcomeFailed    outcome = "failed"
)

type pass struct {
	jobSource  string
	lockName   string
	docSource  documents.Source
	checkPaths bool
	list       func() (Listing, error)
	done       func(Candidate, outcome)
}

type scopeState struct {
	scope *scopes.Scope
	cache *ledger.Cache
	rules *rules.Set
}

// RunArchive scans the archive tree once.
func (s *Scanner) RunArchive(ctx context.Context) (Result, error) {
	if err := checkDir(s.cfg.ArchiveRoot); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrArchiveRoot, err)
	}

	return s.run(ctx, pass{
		jobSource:  scanjobs.SourceArchive,
		lockName:   LockArchive,
		docSource:  documents.SourceArchive,
		checkPaths: true,
		list: func() (Listing, error) {
			return Walk(s.cfg.ArchiveRoot, s.filter)
		},
	})
}

// RunManual ingests every accepted file in the manual input folder into the
// configured scope. Ingested files are moved to processed/<stamp>_<name>,
// duplicates to processed/<stamp>_dup_<name>; failed files stay in place.
func (s *Scanner) RunManual(ctx context.Context) (Result, error) {
	root := s.cfg.ManualRoot
	if root == "" {
		return Result{}, fmt.Errorf("%w: manual_root not configured", ErrManualRoot)
	}
	if err := checkDir(root); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrManualRoot, err)
	}

	processed := filepath.Join(root, "processed")
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrManualRoot, err)
	}

	return s.run(ctx, pass{
		jobSource: scanjobs.SourceManual,
		lockName:  LockManual,
		docSource: documents.SourceManual,
		list: func() (Listing, error) {
			return ListFlat(root, s.cfg.ManualScope, "manual", s.filter)
		},
		done: func(c Candidate, o outcome) {
			s.moveProcessed(processed, c, o)
		},
	})
}

func (s *Scanner) run(ctx context.Context, p pass) (Result, error) {
	var res Result

	acquired, err := s.sys.Locker.WithLock(ctx, p.lockName, s.cfg.LockTTLDuration(), func(ctx context.Context) error {
		start := time.Now()

		tracker, err := scanjobs.Start(ctx, s.sys.Jobs, p.jobSource, s.cfg.FlushIntervalDuration(), s.logger)
		if err != nil {
			return fmt.Errorf("start scan job: %w", err)
		}

		runErr := s.process(ctx, tracker, p)

		job, _ := tracker.Finish(ctx, runErr)
		res.Job = job

		status := scanjobs.StatusCompleted
		if runErr != nil {
			status = scanjobs.StatusFailed
		}
		runDuration.WithLabelValues(p.jobSource, string(status)).Observe(time.Since(start).Seconds())

		return runErr
	})

	res.Acquired = acquired
	return res, err
}

func (s *Scanner) process(ctx context.Context, tracker *scanjobs.Tracker, p pass) error {
	listing, err := p.list()
	if err != nil {
		return err
	}
	candidates := listing.Candidates
	tracker.AddTotal(len(candidates) + len(listing.Unreadable))

	for _, u := range listing.Unreadable {
		s.logger.Error("path unreadable, skipped", "scope", u.ScopeCode, "path", u.Path, "error", u.Err)
		record(tracker, p.jobSource, outcomeFailed)
	}

	states, err := s.prepare(ctx, candidates)
	if err != nil {
		return err
	}

	s.logger.Info("scan started",
		"source", p.jobSource, "files", len(candidates), "scopes", len(states), "workers", s.cfg.Workers)

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		st := states[c.ScopeCode]
		g.Go(func() error {
			tracker.Begin(c.RelPath)
			o := s.ingest(context.WithoutCancel(ctx), st, c, p)
			record(tracker, p.jobSource, o)
			if p.done != nil {
				p.done(c, o)
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan cancelled: %w", err)
	}
	return nil
}

// prepare resolves each scope seen in candidates, creating unknown ones,
// and loads its ledger cache and rule set for the run.
func (s *Scanner) prepare(ctx context.Context, candidates []Candidate) (map[string]*scopeState, error) {
	states := make(map[string]*scopeState)

	for _, c := range candidates {
		if _, ok := states[c.ScopeCode]; ok {
			continue
		}

		scope, created, err := s.sys.Scopes.Ensure(ctx, c.ScopeCode)
		if err != nil {
			return nil, fmt.Errorf("ensure scope %s: %w", c.ScopeCode, err)
		}
		if created {
			s.logger.Info("scope created", "scope", scope.Code, "name", scope.Name)
		}

		cache, err := s.sys.Ledger.NewCache(ctx, scope.ID)
		if err != nil {
			return nil, fmt.Errorf("load ledger for scope %s: %w", scope.Code, err)
		}

		set, err := s.sys.Classifier.Set(ctx, scope.ID)
		if err != nil {
			return nil, fmt.Errorf("load rules for scope %s: %w", scope.Code, err)
		}

		states[c.ScopeCode] = &scopeState{scope: scope, cache: cache, rules: set}
	}

	return states, nil
}

func (s *Scanner) moveProcessed(dir string, c Candidate, o outcome) {
	stamp := time.Now().Format("20060102_150405")

	var dest string
	switch o {
	case outcomeProcessed:
		dest = filepath.Join(dir, stamp+"_"+c.Name)
	case outcomeDuplicate:
		dest = filepath.Join(dir, stamp+"_dup_"+c.Name)
	default:
		return
	}

	if err := os.Rename(c.Path, dest); err != nil {
		s.logger.Error("move processed file failed", "path", c.Path, "dest", dest, "error", err)
	}
}

func record(tracker *scanjobs.Tracker, source string, o outcome) {
	switch o {
	case outcomeProcessed:
		tracker.Processed()
	case outcomeSeen, outcomeDuplicate:
		tracker.Skipped()
	default:
		tracker.Failed()
	}
	filesTotal.WithLabelValues(source, string(o)).Inc()
}

func checkDir(path string) error {
	if path == "" {
		return errors.New("path not configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
