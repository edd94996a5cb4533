// Package api builds the HTTP surface: one module carrying every domain
// handler behind a shared middleware stack.
package api

import (
	"net/http"

	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/infrastructure"
	"github.com/JaimeStill/dossier/pkg/middleware"
	"github.com/JaimeStill/dossier/pkg/module"
)

const moduleName = "api"

// NewModule registers all routes under cfg.API.BasePath. The Domain it
// returns is the same one the handlers use, so scheduled scans share
// their systems.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra, moduleName)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	for _, mw := range []middleware.Func{
		middleware.CORS(&cfg.API.CORS),
		middleware.Metrics(moduleName),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
	} {
		m.Use(mw)
	}
	return m, domain, nil
}
