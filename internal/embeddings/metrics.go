package embeddings

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// generationsTotal counts embedding calls.
	// Labels: model, operation (embed_documents, embed_query), result (success, error)
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knowledged",
			Subsystem: "embeddings",
			Name:      "generations_total",
			Help:      "Total number of embedding generation calls",
		},
		[]string{"model", "operation", "result"},
	)

	// generationDuration tracks embedding call latency.
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "knowledged",
			Subsystem: "embeddings",
			Name:      "generation_duration_seconds",
			Help:      "Duration of embedding generation calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model", "operation"},
	)
)

// recordGeneration records one embedding call outcome.
func recordGeneration(model, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	generationsTotal.WithLabelValues(model, operation, result).Inc()
	generationDuration.WithLabelValues(model, operation).Observe(duration.Seconds())
}
