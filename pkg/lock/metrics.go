package lock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAcquired = "acquired"
	outcomeHeld     = "held"
	outcomeDegraded = "degraded"
	outcomeLost     = "lost"
)

var attempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dossier",
		Subsystem: "lock",
		Name:      "attempts_total",
		Help:      "Lock acquisition attempts by lock name and outcome.",
	},
	[]string{"name", "outcome"},
)
