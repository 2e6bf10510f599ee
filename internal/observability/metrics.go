// Package observability holds the Prometheus metrics of the reconciliation service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Matching Metrics ───────────────────────────────────────────────────────

// PairsScored counts payment/transaction pairs evaluated by the matcher.
var PairsScored = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "recon",
	Subsystem: "matcher",
	Name:      "pairs_scored_total",
	Help:      "Total payment/transaction pairs evaluated.",
})

// ─── Run Metrics ────────────────────────────────────────────────────────────

// RunsTotal counts reconciliation previews by outcome (ok, error, cancelled).
var RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recon",
	Subsystem: "run",
	Name:      "total",
	Help:      "Total reconciliation runs by outcome.",
}, []string{"outcome"})

// RunDuration tracks how long a reconciliation preview takes end to end.
var RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "recon",
	Subsystem: "run",
	Name:      "duration_seconds",
	Help:      "Reconciliation run latency.",
	Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
})

// MatchesByTier counts matches produced per tier (automatic, suggested).
var MatchesByTier = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recon",
	Subsystem: "run",
	Name:      "matches_total",
	Help:      "Matches produced by tier.",
}, []string{"tier"})

// ─── Commit Metrics ─────────────────────────────────────────────────────────

// Commits counts pair commits by result (ok, not_found, already_reconciled,
// invalid_input, storage_failure).
var Commits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recon",
	Subsystem: "commit",
	Name:      "total",
	Help:      "Payment/transaction link commits by result.",
}, []string{"result"})
