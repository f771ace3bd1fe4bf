package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider-level metrics.
var (
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmccscan_provider_requests_total",
		Help: "Provider requests by provider, operation, and outcome",
	}, []string{"provider", "operation", "status"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pmccscan_provider_latency_seconds",
		Help:    "Provider request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	ProviderRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmccscan_provider_retries_total",
		Help: "Retries issued against providers",
	}, []string{"provider", "operation"})

	CircuitTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmccscan_circuit_transitions_total",
		Help: "Circuit breaker state transitions by provider",
	}, []string{"provider", "from", "to"})
)

// Scan-level metrics.
var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmccscan_scans_total",
		Help: "Completed scans by outcome",
	}, []string{"status"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmccscan_scan_duration_seconds",
		Help:    "End-to-end scan duration",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
	})

	SymbolsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmccscan_symbols_scanned_total",
		Help: "Symbols taken through the options analysis stage",
	})

	OpportunitiesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmccscan_opportunities_total",
		Help: "PMCC opportunities emitted across all scans",
	})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmccscan_ai_requests_total",
		Help: "AI analysis requests by outcome",
	}, []string{"status"})

	AISpendUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmccscan_ai_spend_usd_total",
		Help: "Estimated AI spend in USD",
	})
)
