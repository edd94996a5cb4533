package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/api"
	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/infrastructure"
	"github.com/JaimeStill/dossier/internal/scopes"
)

// commandContext lazily builds the domain the first time a command needs
// it, so that help and flag errors never touch the database.
type commandContext struct {
	configPath string
	jsonOutput bool

	once   sync.Once
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
	err    error
}

func (c *commandContext) ensureDomain(ctx context.Context) (*api.Domain, error) {
	c.once.Do(func() {
		path := config.BaseConfigFile
		if p := strings.TrimSpace(c.configPath); p != "" {
			path = p
		}

		cfg, err := config.LoadFile(path)
		if err != nil {
			c.err = err
			return
		}

		infra, err := infrastructure.New(ctx, cfg)
		if err != nil {
			c.err = err
			return
		}
		if err := infra.Start(); err != nil {
			c.err = err
			return
		}
		infra.Lifecycle.WaitForStartup()

		if err := infra.Database.Ping(ctx); err != nil {
			c.err = err
			return
		}

		c.cfg = cfg
		c.infra = infra
		c.domain = api.NewDomain(api.NewRuntime(cfg, infra, "cli"))
	})
	return c.domain, c.err
}

func (c *commandContext) close() error {
	if c.infra == nil {
		return nil
	}
	return c.infra.Lifecycle.Shutdown(c.cfg.ShutdownTimeoutDuration())
}

// scopeID resolves an optional eight-digit scope code flag.
func scopeID(ctx context.Context, d *api.Domain, code string) (*uuid.UUID, error) {
	if code == "" {
		return nil, nil
	}
	if !scopes.ValidCode(code) {
		return nil, fmt.Errorf("invalid scope code %q: want eight digits", code)
	}
	scope, err := d.Scopes.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", code, err)
	}
	return &scope.ID, nil
}

func optionalUUID(value, name string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return &id, nil
}
