// Package metrics holds the prometheus collectors for the track pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Wire decoder
	EnvelopesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_envelopes_decoded_total",
			Help: "Envelopes decoded, by payload type",
		},
		[]string{"payload"},
	)

	EnvelopesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_envelopes_dropped_total",
			Help: "Envelopes dropped before reaching the index",
		},
		[]string{"reason"}, // "decode", "ignored"
	)

	// Track index
	DeltasApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackview_deltas_applied_total",
			Help: "Track deltas upserted into the index",
		},
	)

	DeltasRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_deltas_rejected_total",
			Help: "Track deltas rejected by the index",
		},
		[]string{"reason"},
	)

	TrackedEntities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackview_tracked_entities",
			Help: "Entities held in the index (all ever seen this session)",
		},
	)

	LiveEntities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackview_live_entities",
			Help: "Entities passing the current filter",
		},
	)

	// Stage emissions
	StageEmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_stage_emissions_total",
			Help: "Downstream emissions per stage, by trigger",
		},
		[]string{"stage", "trigger"}, // trigger: "timed", "forced"
	)

	// Cluster/LOD
	RenderClusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackview_render_clusters",
			Help: "Synthetic cluster entities in the latest LOD pass",
		},
	)

	RenderSingles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackview_render_singles",
			Help: "Pass-through singles kept after decimation in the latest LOD pass",
		},
	)

	// Packer
	PackedEntities = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trackview_packed_entities",
			Help:    "Entities per packed render payload",
			Buckets: prometheus.ExponentialBuckets(16, 4, 7), // 16 .. 65536
		},
	)

	// Seek coordinator
	SeekLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_seek_lookups_total",
			Help: "Historical range lookups by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "rejected"
	)

	SeekLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trackview_seek_lookup_duration_seconds",
			Help:    "Historical range lookup latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	SubscriptionsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackview_subscriptions_sent_total",
			Help: "Subscription requests published upstream, by mode",
		},
		[]string{"mode"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trackview_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
