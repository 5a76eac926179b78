package insights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enrichmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reflections_enrichment_total",
		Help: "Enrichment attempts by outcome",
	}, []string{"outcome"})

	personaTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reflections_persona_synthesis_total",
		Help: "Persona synthesis runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	milestonesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reflections_milestones_total",
		Help: "Milestone flags set by threshold",
	}, []string{"threshold"})

	radarTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reflections_radar_runs_total",
		Help: "Radar generations by kind and outcome",
	}, []string{"kind", "outcome"})

	generateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reflections_generate_duration_seconds",
		Help:    "Generative API latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"purpose"})
)
