package employees

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dossier",
		Subsystem: "resolver",
		Name:      "cache_lookups_total",
		Help:      "Employee resolver cache lookups by result.",
	},
	[]string{"result"},
)
