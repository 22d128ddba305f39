package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus mirrors of the per-job counters BaseJob already tracks, so an
// operator's scraper sees the same numbers the /jobs API reports.
var (
	jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqforge_job_runs_total",
		Help: "Completed job executions by job name and outcome.",
	}, []string{"job", "status"})

	jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reqforge_job_duration_seconds",
		Help:    "Wall-clock duration of job executions.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"job"})

	jobRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqforge_job_rejected_total",
		Help: "Trigger attempts rejected by the single-flight gate.",
	}, []string{"job"})
)
