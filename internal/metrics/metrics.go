package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Settlement metrics
	SettlementRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_requests_total",
			Help: "Total number of donation settlement requests",
		},
		[]string{"status"},
	)

	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "End-to-end settlement duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SwapsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_swaps_executed_total",
		Help: "Total number of swap instructions executed",
	})

	DonationsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_donations_settled_total",
		Help: "Total number of donations paid out",
	})

	// Custody metrics
	CustodyResidual = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "settlement_custody_residual_wei",
			Help: "Token balance left in engine custody after the last batch",
		},
		[]string{"token"},
	)

	// Journal metrics
	JournalWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_journal_writes_total",
		Help: "Total number of settlement records journaled",
	})

	JournalWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_journal_write_failures_total",
		Help: "Total number of failed journal writes",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
