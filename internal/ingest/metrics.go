package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledged_ingest_documents_total",
			Help: "Total documents processed by the ingestion pipeline",
		},
		[]string{"result"},
	)

	chunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledged_ingest_chunks_total",
			Help: "Total chunk uploads attempted by the ingestion pipeline",
		},
		[]string{"result"},
	)
)

func recordDocument(result string) {
	documentsTotal.WithLabelValues(result).Inc()
}

func recordChunk(result string) {
	chunksTotal.WithLabelValues(result).Inc()
}
