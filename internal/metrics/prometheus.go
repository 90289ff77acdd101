package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the feature pipeline

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_api_calls_total",
			Help: "Total number of stats API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nhl_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Ingestion metrics
	ObservationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_observations_ingested_total",
			Help: "Total number of observations written to the store",
		},
		[]string{"kind"},
	)

	ObservationsMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhl_observations_malformed_total",
			Help: "Total number of observations dropped for missing join keys",
		},
	)

	GamesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhl_games_skipped_total",
			Help: "Total number of games skipped due to fetch or parse failures",
		},
	)

	GamesInStore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_games_in_store",
			Help: "Total number of games in the observation store",
		},
	)

	// Feature build metrics
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_feature_builds_total",
			Help: "Total number of feature table builds",
		},
		[]string{"mode", "status"},
	)

	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nhl_feature_build_duration_seconds",
			Help:    "Duration of feature table builds in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	FeatureRowsEmitted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_feature_rows_emitted",
			Help: "Rows in the latest feature table",
		},
	)

	FeatureRowsDropped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_feature_rows_dropped",
			Help: "Rows dropped as incomplete in the latest build",
		},
	)

	ZeroDenominators = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_zero_denominators",
			Help: "Zero-denominator derived stats in the latest build",
		},
	)

	SkewImputed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_skew_values_imputed",
			Help: "Skew values imputed to zero in the latest build",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulBuild = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_last_successful_build_timestamp",
			Help: "Timestamp of the last successful feature build",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordBuild records a feature build outcome
func RecordBuild(mode, status string, duration float64) {
	BuildsTotal.WithLabelValues(mode, status).Inc()
	BuildDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulBuild.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateBuildStats publishes the quality counters of the latest build
func UpdateBuildStats(rowsEmitted, rowsDropped, zeroDenoms, skewImputed int) {
	FeatureRowsEmitted.Set(float64(rowsEmitted))
	FeatureRowsDropped.Set(float64(rowsDropped))
	ZeroDenominators.Set(float64(zeroDenoms))
	SkewImputed.Set(float64(skewImputed))
}
