package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

var (
	// AuthValidations counts Auth Gate decisions.
	//   - outcome: "success", "failure" (401), "error" (500)
	AuthValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_validations_total",
			Help: "Total number of bearer token validations by outcome",
		},
		[]string{"outcome"},
	)

	// AuthValidationDuration measures the remote validator round trip.
	AuthValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_validation_duration_seconds",
			Help:    "Duration of remote token validation calls in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// CategoryOutcomes counts per-category fan-out results.
	// The failure reason is the error code; success uses "none".
	CategoryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_category_outcomes_total",
			Help: "Total number of analysis categories processed by outcome",
		},
		[]string{"outcome", "reason"},
	)

	// CategoryDuration measures a single category from lookup to parse.
	CategoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyzer_category_duration_seconds",
			Help:    "Duration of a single category prompt in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	// CategoriesInFlight tracks category tasks currently waiting on the provider.
	CategoriesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyzer_categories_in_flight",
			Help: "Number of category prompts currently in flight",
		},
	)

	// HTTPRequests counts served requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
