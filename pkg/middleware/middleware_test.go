package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/dossier/pkg/middleware"
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"https://hr.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}

	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		status     int
		allowed    string
		allowedMax string
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "https://hr.example.com", http.StatusOK, "", ""},
		{"allowed origin", cfg, "GET", "https://hr.example.com", http.StatusOK, "https://hr.example.com", "600"},
		{"denied origin", cfg, "GET", "https://evil.example.com", http.StatusOK, "", ""},
		{"preflight allowed", cfg, "OPTIONS", "https://hr.example.com", http.StatusNoContent, "https://hr.example.com", "600"},
		{"preflight denied", cfg, "OPTIONS", "https://evil.example.com", http.StatusForbidden, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			middleware.CORS(tt.cfg)(status(http.StatusOK)).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.allowed {
				t.Errorf("allow-origin = %q, want %q", got, tt.allowed)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != tt.allowedMax {
				t.Errorf("max-age = %q, want %q", got, tt.allowedMax)
			}
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{middleware.AnyOrigin},
		ExposedHeaders: []string{"Content-Disposition"},
	}
	if err := cfg.Finalize(""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://any.example.com")
	middleware.CORS(cfg)(status(http.StatusOK)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://any.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition" {
		t.Errorf("expose-headers = %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("vary = %q, want Origin", got)
	}
}

func TestCORSFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", " https://a.example.com, ,https://b.example.com,https://a.example.com")

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize("TEST_CORS"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled = false, want true")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !slices.Equal(cfg.Origins, want) {
		t.Errorf("origins = %v, want %v", cfg.Origins, want)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age = %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSFinalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		cfg  middleware.CORSConfig
	}{
		{"bad bool", map[string]string{"TEST_CORS_ENABLED": "maybe"}, middleware.CORSConfig{}},
		{"bad max age", map[string]string{"TEST_CORS_MAX_AGE": "soon"}, middleware.CORSConfig{}},
		{"credentials with wildcard", nil, middleware.CORSConfig{
			Origins:          []string{middleware.AnyOrigin},
			AllowCredentials: true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if err := tt.cfg.Finalize("TEST_CORS"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(status(http.StatusBadGateway))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/documents?status=ASSIGNED", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=502", "uri=\"/api/documents?status=ASSIGNED\""} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}

func TestMetricsCountsByStatus(t *testing.T) {
	handler := middleware.Metrics("metrics_test")(status(http.StatusNotFound))

	before := testutil.CollectAndCount(middleware.RequestsTotal())
	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))
	}

	if got := testutil.ToFloat64(middleware.RequestsTotal().WithLabelValues("metrics_test", "GET", "404")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if after := testutil.CollectAndCount(middleware.RequestsTotal()); after != before+1 {
		t.Errorf("series = %d, want %d", after, before+1)
	}
}

func TestUseIgnoresNil(t *testing.T) {
	mw := middleware.New()
	mw.Use(nil)
	mw.Use(func(next http.Handler) http.Handler { return next })

	if mw.Len() != 1 {
		t.Errorf("Len() = %d, want 1", mw.Len())
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			"panic before write",
			func(w http.ResponseWriter, r *http.Request) { panic("boom") },
			http.StatusInternalServerError,
			`"error":"internal error"`,
		},
		{
			"panic after write keeps status",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				panic("late")
			},
			http.StatusAccepted,
			"",
		},
		{
			"no panic",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
			http.StatusNoContent,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))

			rec := httptest.NewRecorder()
			middleware.Recover(logger)(tt.handler).ServeHTTP(rec, httptest.NewRequest("POST", "/scans/archive", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want containing %q", rec.Body.String(), tt.wantBody)
			}
			panicked := strings.Contains(logs.String(), "handler panic")
			if panicked != (tt.name != "no panic") {
				t.Errorf("panic logged = %v, logs = %s", panicked, logs.String())
			}
		})
	}
}

func TestRecoverReraisesAbort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}
