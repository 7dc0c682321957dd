package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(generationJobsTotal, generationJobDuration) }

var generationJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "letter_generation_jobs_total",
		Help: "Total letter generation jobs processed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'completed', 'failed'
)

var generationJobDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "letter_generation_job_seconds",
		Help:    "End-to-end duration of one generation job.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 90},
	},
)

func IncGenerationJob(outcome string) {
	generationJobsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveJobDuration(seconds float64) {
	generationJobDuration.Observe(seconds)
}
