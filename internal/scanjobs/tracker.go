package scanjobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFlushInterval is how often a Tracker writes progress when no
// interval is given.
const DefaultFlushInterval = 2 * time.Second

// Tracker accumulates the counters of a running scan job and persists them
// periodically. Counter methods are safe for concurrent use by workers.
type Tracker struct {
	sys    System
	job    Job
	logger *slog.Logger

	mu       sync.Mutex
	progress Progress
	dirty    bool

	stop chan struct{}
	done chan struct{}

	once   sync.Once
	result *Job
	err    error
}

// Start creates a RUNNING job for source and begins flushing its progress
// every interval until Finish is called.
func Start(ctx context.Context, sys System, source string, interval time.Duration, logger *slog.Logger) (*Tracker, error) {
	job, err := sys.Create(ctx, source)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	t := &Tracker{
		sys:    sys,
		job:    *job,
		logger: logger.With("scan_job", job.ID),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go t.loop(context.WithoutCancel(ctx), interval)
	return t, nil
}

// ID returns the tracked job's id.
func (t *Tracker) ID() uuid.UUID {
	return t.job.ID
}

func (t *Tracker) AddTotal(n int) {
	t.update(func(p *Progress) { p.Total += n })
}

// Begin records the file a worker is currently handling.
func (t *Tracker) Begin(file string) {
	t.update(func(p *Progress) { p.Current = file })
}

func (t *Tracker) Processed() {
	t.update(func(p *Progress) { p.Processed++ })
}

func (t *Tracker) Skipped() {
	t.update(func(p *Progress) { p.Skipped++ })
}

func (t *Tracker) Failed() {
	t.update(func(p *Progress) { p.Errors++ })
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Finish stops flushing and finalizes the job: COMPLETED when runErr is nil,
// FAILED with runErr's message otherwise. Only the first call writes; later
// calls return the first result.
func (t *Tracker) Finish(ctx context.Context, runErr error) (*Job, error) {
	t.once.Do(func() {
		close(t.stop)
		<-t.done

		status, message := StatusCompleted, ""
		if runErr != nil {
			status, message = StatusFailed, runErr.Error()
		}

		t.result, t.err = t.sys.Finalize(context.WithoutCancel(ctx), t.job.ID, t.Snapshot(), status, message)
		if t.err != nil {
			t.logger.Error("finalize scan job failed", "error", t.err)
		}
	})
	return t.result, t.err
}

func (t *Tracker) update(fn func(*Progress)) {
	t.mu.Lock()
	fn(&t.progress)
	t.dirty = true
	t.mu.Unlock()
}

func (t *Tracker) loop(ctx context.Context, interval time.Duration) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.flush(ctx)
		}
	}
}

func (t *Tracker) flush(ctx context.Context) {
	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return
	}
	p := t.progress
	t.dirty = false
	t.mu.Unlock()

	if err := t.sys.Update(ctx, t.job.ID, p); err != nil {
		t.logger.Warn("flush scan job progress failed", "error", err)
	}
}
