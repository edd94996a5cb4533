package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/dossier/pkg/middleware"
	"github.com/JaimeStill/dossier/pkg/module"
	"github.com/JaimeStill/dossier/pkg/openapi"
	"github.com/JaimeStill/dossier/pkg/pagination"
)

// APIConfig holds the API mount point and the CORS, pagination and OpenAPI
// settings applied beneath it.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
	OpenAPI    openapi.Config        `toml:"openapi"`
}

// Finalize settles BasePath, which must be a single segment such as "/api",
// then finalizes each nested section under its DOSSIER_* prefix.
func (c *APIConfig) Finalize() error {
	if v := os.Getenv("DOSSIER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if err := module.ValidatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("base_path: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"cors", func() error { return c.CORS.Finalize("DOSSIER_CORS") }},
		{"pagination", func() error { return c.Pagination.Finalize("DOSSIER_PAGINATION") }},
		{"openapi", func() error {
			return c.OpenAPI.Finalize(&openapi.ConfigEnv{
				Title:       "DOSSIER_OPENAPI_TITLE",
				Description: "DOSSIER_OPENAPI_DESCRIPTION",
				Servers:     "DOSSIER_OPENAPI_SERVERS",
			})
		}},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}
