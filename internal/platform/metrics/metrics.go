package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Lifecycle metrics
	Transitions       *prometheus.CounterVec
	IssuanceCalls     prometheus.Counter
	IssuanceFailures  prometheus.Counter
	IssuanceLatency   prometheus.Histogram
	IssuanceOrphaned  prometheus.Counter
	VerificationCalls *prometheus.CounterVec

	// DID registry metrics
	DIDAssignments *prometheus.CounterVec

	// Cascade cleanup metrics
	CascadeDeletes *prometheus.CounterVec

	// Transport metrics
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credtrust_credential_transitions_total",
			Help: "Credential status transitions, labeled by transition and outcome",
		}, []string{"transition", "outcome"}),
		IssuanceCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credtrust_issuance_calls_total",
			Help: "Calls made to the external trust network issue endpoint",
		}),
		IssuanceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credtrust_issuance_failures_total",
			Help: "Failed trust network issuance calls",
		}),
		IssuanceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credtrust_issuance_latency_seconds",
			Help:    "Latency of trust network issuance calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		// A signed credential was produced but the follow-up persistence write
		// failed. These artifacts exist on the network with no local record and
		// require operator attention.
		IssuanceOrphaned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credtrust_issuance_orphaned_total",
			Help: "Signed credentials issued but not persisted (saga mismatch)",
		}),
		VerificationCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credtrust_verification_calls_total",
			Help: "Advisory verification calls, labeled by result",
		}, []string{"result"}),
		DIDAssignments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credtrust_did_assignments_total",
			Help: "DID assignments, labeled by owner type",
		}, []string{"owner_type"}),
		CascadeDeletes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credtrust_cascade_deletes_total",
			Help: "Cascade delete operations, labeled by root entity",
		}, []string{"entity"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credtrust_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
