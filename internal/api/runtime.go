package api

import (
	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/infrastructure"
	"github.com/JaimeStill/dossier/pkg/pagination"
)

// Runtime extends Infrastructure with the configuration domain systems need.
type Runtime struct {
	*infrastructure.Infrastructure
	Config     *config.Config
	Pagination pagination.Config
}

// NewRuntime creates a runtime whose logger is scoped to module.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure, module string) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", module)

	return &Runtime{
		Infrastructure: &scoped,
		Config:         cfg,
		Pagination:     cfg.API.Pagination,
	}
}
