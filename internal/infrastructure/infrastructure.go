// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, encryption,
// locking and barcode extraction) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/database"
	"github.com/JaimeStill/dossier/pkg/lifecycle"
	"github.com/JaimeStill/dossier/pkg/lock"
	"github.com/JaimeStill/dossier/pkg/storage"
	"github.com/JaimeStill/dossier/pkg/vault"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, blob storage, encryption at rest, distributed
// locking and barcode extraction.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cipher    vault.Cipher
	Locker    *lock.Locker
	Extractor *barcode.Extractor
}

// New creates an Infrastructure from the application configuration. The
// lifecycle context derives from ctx. It initializes all systems but does
// not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New(ctx)
	logger := NewLogger(&cfg.Logging, os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	cipher, err := vault.New(&cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("vault init failed: %w", err)
	}

	lockStore, err := lock.NewStore(&cfg.Lock)
	if err != nil {
		return nil, fmt.Errorf("lock store init failed: %w", err)
	}

	extractor := barcode.New(
		barcode.NewZXing(),
		barcode.NewImageMagick(cfg.Barcode.TempDir, cfg.Barcode.MaxRenders),
		&cfg.Barcode,
		logger,
	)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cipher:    cipher,
		Locker:    lock.New(lockStore, cfg.Lock.Prefix, logger),
		Extractor: extractor,
	}, nil
}

// NewLogger builds the process logger from the logging config.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
