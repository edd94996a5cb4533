package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) error {
	scans := newScansHandler(domain.Scanner, runtime.Lifecycle.Go, runtime.Logger)

	groups := []routes.Group{
		domain.Documents.Handler().Routes(),
		domain.ScanJobs.Handler().Routes(),
		domain.Filing.Handler().Routes(),
		scans.routes(),
	}
	routes.Register(mux, groups...)

	spec, err := specJSON(runtime, groups)
	if err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}

func specJSON(runtime *Runtime, groups []routes.Group) ([]byte, error) {
	cfg := runtime.Config

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	servers := cfg.API.OpenAPI.Servers
	if len(servers) == 0 {
		servers = []string{cfg.API.BasePath}
	}
	for _, s := range servers {
		spec.AddServer(s)
	}
	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Document":      openapi.SchemaOf(documents.Document{}),
		"SearchRequest": openapi.SchemaOf(documents.SearchRequest{}),
		"ScanJob":       openapi.SchemaOf(scanjobs.Job{}),
		"ScanResult":    openapi.SchemaOf(scanner.Result{}),
		"PersonnelFile": openapi.SchemaOf(filing.PersonnelFile{}),
		"Entry":         openapi.SchemaOf(filing.Entry{}),
	})

	routes.Document(spec, groups...)
	return openapi.MarshalJSON(spec)
}
