package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks per-stage outcomes of case research runs. It
// satisfies the use case's stage observer interface.
type PipelineMetrics struct {
	service string

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

func NewPipelineMetrics(service string, registry *prometheus.Registry) *PipelineMetrics {
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexicon",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total completed pipeline stages by status.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexicon",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "stage"},
	)

	registry.MustRegister(stageTotal, stageDuration)

	return &PipelineMetrics{
		service:       service,
		stageTotal:    stageTotal,
		stageDuration: stageDuration,
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stageTotal.WithLabelValues(m.service, stage, status).Inc()
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}
