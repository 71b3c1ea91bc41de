package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PushedRequests counts pushed authorization requests by grant management action.
	PushedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantd_pushed_requests_total",
			Help: "Total number of pushed authorization requests",
		},
		[]string{"action"},
	)

	// ConsentsRecorded counts recorded consents by grant management action.
	ConsentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantd_consents_total",
			Help: "Total number of recorded consents",
		},
		[]string{"action"},
	)

	// TokensIssued counts access tokens minted by the token endpoint.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grantd_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	// EvaluationDecisions counts access evaluation outcomes (permit|deny|error).
	EvaluationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantd_evaluation_decisions_total",
			Help: "Total number of access evaluation decisions",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantd_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
