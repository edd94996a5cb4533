package main

import (
	"context"
	"time"

	"github.com/JaimeStill/dossier/internal/api"
	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/infrastructure"
)

// Server owns the infrastructure, the mounted API module and the HTTP
// listener for one process.
type Server struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
	http   *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	domain, err := mountAPI(router, infra, cfg)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		cfg:    cfg,
		infra:  infra,
		domain: domain,
		http:   newHTTPServer(&cfg.Server, cfg.ShutdownTimeoutDuration(), router, infra.Logger),
	}, nil
}

// Start brings up infrastructure, binds the listener, fails jobs orphaned
// by a previous process and schedules scans once every subsystem is ready.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	s.infra.Lifecycle.OnStartup(s.recoverJobs)

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("subsystems ready", "database", s.infra.Database.Ready())
		schedule(s.infra.Lifecycle, s.cfg, s.domain.Scanner, s.infra.Logger)
	}()

	return nil
}

// recoverJobs fails scan jobs left RUNNING by a previous process.
func (s *Server) recoverJobs() {
	n, err := s.domain.ScanJobs.FailRunning(s.infra.Lifecycle.Context(), "interrupted by restart")
	if err != nil {
		s.infra.Logger.Error("recover scan jobs failed", "error", err)
		return
	}
	if n > 0 {
		s.infra.Logger.Warn("failed interrupted scan jobs", "count", n)
	}
}

// Shutdown cancels running scans, drains HTTP and closes the pool within
// timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutdown requested", "timeout", timeout)
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return err
	}
	s.infra.Logger.Info("shutdown complete")
	return nil
}
