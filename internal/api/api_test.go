package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fernet/fernet-go"

	"github.com/JaimeStill/dossier/internal/api"
	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/infrastructure"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/database"
	"github.com/JaimeStill/dossier/pkg/lock"
	"github.com/JaimeStill/dossier/pkg/middleware"
	"github.com/JaimeStill/dossier/pkg/pagination"
	"github.com/JaimeStill/dossier/pkg/storage"
	"github.com/JaimeStill/dossier/pkg/vault"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "dossier",
			User:            "dossier",
			Password:        "dossier",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{Provider: storage.ProviderLocal, Root: t.TempDir()},
		Vault:   vault.Config{Key: key.Encode(), MaxPlaintextSize: "10MB"},
		Lock:    lock.Config{Store: lock.StoreMemory, Prefix: "test:"},
		Barcode: barcode.Config{PageTimeout: "1s", ProbePages: 3},
		Scanner: scanner.Config{ArchiveRoot: t.TempDir(), Workers: 2},
		Employees: config.EmployeesConfig{
			CacheSize: 16,
			CacheTTL:  "1m",
		},
		API: config.APIConfig{
			BasePath: "/api",
			CORS:     middleware.CORSConfig{Enabled: false},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Logging:         config.LoggingConfig{Level: "info", Format: "json"},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, domain, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
	if domain == nil || domain.Scanner == nil {
		t.Fatal("domain scanner not wired")
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra, "test")

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Logger == infra.Logger {
		t.Error("runtime logger should be scoped, not the shared logger")
	}
	if runtime.Database == nil || runtime.Storage == nil || runtime.Lifecycle == nil {
		t.Error("runtime infrastructure not carried over")
	}
	if runtime.Config != cfg {
		t.Error("runtime config not carried over")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	domain := api.NewDomain(api.NewRuntime(cfg, infra, "test"))

	tests := []struct {
		name string
		nil  bool
	}{
		{"scopes", domain.Scopes == nil},
		{"employees", domain.Employees == nil},
		{"categories", domain.Categories == nil},
		{"ledger", domain.Ledger == nil},
		{"documents", domain.Documents == nil},
		{"rules", domain.Rules == nil},
		{"filing", domain.Filing == nil},
		{"scan jobs", domain.ScanJobs == nil},
		{"resolver", domain.Resolver == nil},
		{"classifier", domain.Classifier == nil},
		{"splitter", domain.Splitter == nil},
		{"scanner", domain.Scanner == nil},
		{"maintenance", domain.Maintenance == nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.nil {
				t.Errorf("%s is nil", tt.name)
			}
		})
	}
}

func TestUnknownScanSource(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, _, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/scans/elsewhere", nil)
	rec := httptest.NewRecorder()
	m.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, _, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths      map[string]map[string]any `json:"paths"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.Info.Version != "0.1.0" {
		t.Errorf("version = %q, want 0.1.0", doc.Info.Version)
	}

	paths := []struct {
		path   string
		method string
	}{
		{"/documents", "get"},
		{"/documents/{id}/content", "get"},
		{"/documents/search", "post"},
		{"/scan-jobs/{id}", "get"},
		{"/personnel-files/{id}/entries", "get"},
		{"/scans/{source}", "post"},
	}
	for _, p := range paths {
		if _, ok := doc.Paths[p.path][p.method]; !ok {
			t.Errorf("missing %s %s", p.method, p.path)
		}
	}

	for _, name := range []string{"Document", "ScanJob", "ScanResult", "PersonnelFile", "Entry"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}
