package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/routes"
)

type stubRunner struct {
	result scanner.Result
	err    error
	calls  []string
}

func (s *stubRunner) RunArchive(ctx context.Context) (scanner.Result, error) {
	s.calls = append(s.calls, scanjobs.SourceArchive)
	return s.result, s.err
}

func (s *stubRunner) RunManual(ctx context.Context) (scanner.Result, error) {
	s.calls = append(s.calls, scanjobs.SourceManual)
	return s.result, s.err
}

func serveScans(t *testing.T, runner scanRunner, spawn func(func(context.Context)), target string) *httptest.ResponseRecorder {
	t.Helper()

	h := newScansHandler(runner, spawn, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	routes.Register(mux, h.routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
	return rec
}

func TestScanTriggerAsync(t *testing.T) {
	runner := &stubRunner{result: scanner.Result{Acquired: true}}

	spawned := 0
	spawn := func(fn func(context.Context)) {
		spawned++
		fn(context.Background())
	}

	rec := serveScans(t, runner, spawn, "/scans/manual")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if spawned != 1 {
		t.Errorf("spawned = %d, want 1", spawned)
	}
	if len(runner.calls) != 1 || runner.calls[0] != scanjobs.SourceManual {
		t.Errorf("calls = %v, want [manual]", runner.calls)
	}
}

func TestScanTriggerWait(t *testing.T) {
	job := &scanjobs.Job{ID: uuid.New(), Source: scanjobs.SourceArchive, Status: scanjobs.StatusCompleted}
	noSpawn := func(fn func(context.Context)) { t.Error("wait=true must not spawn") }

	tests := []struct {
		name   string
		runner *stubRunner
		want   int
	}{
		{"completed", &stubRunner{result: scanner.Result{Acquired: true, Job: job}}, http.StatusOK},
		{"lock held", &stubRunner{result: scanner.Result{Acquired: false}}, http.StatusConflict},
		{"root missing", &stubRunner{err: scanner.ErrArchiveRoot}, http.StatusServiceUnavailable},
		{"other failure", &stubRunner{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveScans(t, tt.runner, noSpawn, "/scans/archive?wait=true")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("body carries job", func(t *testing.T) {
		runner := &stubRunner{result: scanner.Result{Acquired: true, Job: job}}
		rec := serveScans(t, runner, noSpawn, "/scans/archive?wait=true")

		var got scanner.Result
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Acquired || got.Job == nil || got.Job.ID != job.ID {
			t.Errorf("result = %+v", got)
		}
	})
}

func TestScanTriggerUnknownSource(t *testing.T) {
	runner := &stubRunner{}
	rec := serveScans(t, runner, func(func(context.Context)) {}, "/scans/tape")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(runner.calls) != 0 {
		t.Errorf("runner called for unknown source: %v", runner.calls)
	}
}
