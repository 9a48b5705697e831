package riskassess

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_assessments_total",
		Help: "Total risk assessments by scoring path and resulting risk level.",
	}, []string{"path", "risk_level"})

	assessmentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_assessment_errors_total",
		Help: "Assessment failures by error kind.",
	}, []string{"kind"})

	assessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_assessment_duration_seconds",
		Help:    "Latency of single-transaction risk assessments.",
		Buckets: prometheus.DefBuckets,
	})

	trainingRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_model_training_runs_total",
		Help: "Completed model training runs.",
	})
)
