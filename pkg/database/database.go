// Package database owns the PostgreSQL pool: it opens it through pgx, pings
// it at startup with bounded retries, exports pool stats to Prometheus and
// closes it on shutdown.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/dossier/pkg/lifecycle"
)

// ErrNotReady wraps ping failures; the pool exists but PostgreSQL is unreachable.
var ErrNotReady = errors.New("database not ready")

const retryBase = 250 * time.Millisecond

// System manages database connections and lifecycle coordination.
type System interface {
	// Connection returns the underlying database connection pool.
	Connection() *sql.DB
	// Ping verifies the connection within the configured connect timeout.
	Ping(ctx context.Context) error
	// Ready reports whether a ping has succeeded.
	Ready() bool
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	retries     int
	ready       atomic.Bool
}

// New opens the pool and registers its stats collector labelled with the
// database name. No connection is made until Start or Ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := prometheus.Register(collectors.NewDBStatsCollector(db, cfg.Name)); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if !errors.As(err, &dup) {
			db.Close()
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	return &database{
		conn:        db,
		logger:      logger.With("system", "database", "db", cfg.Name),
		connTimeout: cfg.ConnTimeoutDuration(),
		retries:     cfg.ConnRetries,
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

func (d *database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	d.ready.Store(true)
	return nil
}

// pingWithRetry pings up to retries+1 times, doubling the wait between
// attempts. It stops early when ctx is cancelled.
func (d *database) pingWithRetry(ctx context.Context) error {
	wait := retryBase
	for attempt := 0; ; attempt++ {
		err := d.Ping(ctx)
		if err == nil || attempt >= d.retries {
			return err
		}

		d.logger.Warn("database ping failed, retrying",
			"attempt", attempt+1, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.pingWithRetry(lc.Context()); err != nil {
			d.logger.Error("database unreachable", "error", err)
			return
		}
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed")
	})

	return nil
}
