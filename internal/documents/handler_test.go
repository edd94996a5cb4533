package documents_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/routes"
)

type stubSystem struct {
	documents.System
	doc     *documents.Document
	content []byte
	err     error
}

func (s *stubSystem) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	if s.doc == nil || s.doc.ID != id {
		return nil, documents.ErrNotFound
	}
	return s.doc, nil
}

func (s *stubSystem) Content(ctx context.Context, doc *documents.Document) ([]byte, error) {
	return s.content, s.err
}

func newMux(sys documents.System) *http.ServeMux {
	h := documents.NewHandler(sys, slog.New(slog.DiscardHandler), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerDownload(t *testing.T) {
	doc := &documents.Document{
		ID:        uuid.New(),
		Filename:  "payslip.pdf",
		MediaType: "application/pdf",
	}

	tests := []struct {
		name   string
		sys    *stubSystem
		path   string
		status int
	}{
		{"ok", &stubSystem{doc: doc, content: []byte("%PDF-1.4")}, "/documents/" + doc.ID.String() + "/content", http.StatusOK},
		{"bad id", &stubSystem{doc: doc}, "/documents/nope/content", http.StatusBadRequest},
		{"missing", &stubSystem{}, "/documents/" + uuid.NewString() + "/content", http.StatusNotFound},
		{"tampered", &stubSystem{doc: doc, err: documents.ErrDigestMismatch}, "/documents/" + doc.ID.String() + "/content", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newMux(tt.sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
				t.Errorf("Content-Type = %q, want application/pdf", got)
			}
			if got := rec.Body.String(); got != "%PDF-1.4" {
				t.Errorf("body = %q", got)
			}
		})
	}
}
