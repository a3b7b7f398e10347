// Package metrics defines the Prometheus instrumentation shared by the feed
// pollers and the ingestion coordinator. Metrics are served by the separate
// metrics listener, see the server package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tb_feed_cycles_total",
			Help: "Completed feed poll cycles by outcome",
		},
		[]string{"feed", "status"},
	)

	CandidatesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tb_candidates_extracted_total",
			Help: "Candidate indicators extracted from feed payloads",
		},
		[]string{"feed"},
	)

	IndicatorsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tb_indicators_stored_total",
			Help: "Indicator records upserted by the ingestion coordinator",
		},
		[]string{"feed"},
	)

	ClassificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tb_classification_failures_total",
			Help: "Candidates skipped because classification failed",
		},
		[]string{"feed"},
	)
)
