package main

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/dossier/internal/config"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/lifecycle"
)

// schedule registers the periodic scans with the coordinator. Each run goes
// through the scanner's lock and whole-run retry.
func schedule(lc *lifecycle.Coordinator, cfg *config.Config, scans *scanner.Scanner, logger *slog.Logger) {
	logger = logger.With("system", "scheduler")

	sched := &cfg.Scheduler
	if !sched.Enabled {
		logger.Info("scheduled scans disabled")
		return
	}

	register := func(name string, run func(context.Context) (scanner.Result, error)) func(context.Context) {
		return func(ctx context.Context) {
			res, err := run(ctx)
			switch {
			case err != nil:
				logger.Error("scheduled scan failed", "scan", name, "error", err)
			case !res.Acquired:
				logger.Info("scheduled scan skipped, lock held", "scan", name)
			default:
				logger.Info("scheduled scan finished",
					"scan", name,
					"job", res.Job.ID,
					"status", res.Job.Status,
					"processed", res.Job.ProcessedFiles,
					"skipped", res.Job.SkippedFiles,
					"errors", res.Job.ErrorFiles,
				)
			}
		}
	}

	lc.Every(sched.InitialDelayDuration(), sched.ArchiveIntervalDuration(),
		register(scanner.LockArchive, scans.ScheduledArchive))
	logger.Info("archive scan scheduled", "interval", sched.ArchiveInterval)

	interval := sched.ManualIntervalDuration()
	if interval > 0 && cfg.Scanner.ManualRoot != "" {
		lc.Every(sched.InitialDelayDuration(), interval,
			register(scanner.LockManual, scans.ScheduledManual))
		logger.Info("manual scan scheduled", "interval", sched.ManualInterval)
	}
}
