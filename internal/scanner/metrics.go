package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dossier",
			Subsystem: "scan",
			Name:      "files_total",
			Help:      "Files handled by scans, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dossier",
			Subsystem: "scan",
			Name:      "run_duration_seconds",
			Help:      "Duration of scan runs, by source and final status.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"source", "status"},
	)

	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dossier",
			Subsystem: "scan",
			Name:      "documents_total",
			Help:      "Documents produced by scans, by initial status.",
		},
		[]string{"status"},
	)
)
