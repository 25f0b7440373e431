// Package metrics exposes the Prometheus collectors of the API.
//
//	metrics.RecordRequest("GET", "/api/v1/recipes", 200, 12*time.Millisecond)
//	metrics.RecordReading(glucose.Classify(record.Reading))
package metrics

import (
	"strconv"
	"time"

	"github.com/appcontrol-api/glucose"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appcontrol_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appcontrol_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttemptsTotal counts logins and registrations by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appcontrol_auth_attempts_total",
			Help: "Total number of login and registration attempts",
		},
		[]string{"action", "outcome"},
	)

	// GlucoseReadingsTotal counts stored readings by four-band level.
	GlucoseReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appcontrol_glucose_readings_total",
			Help: "Total number of glucose readings recorded, by level",
		},
		[]string{"level"},
	)

	// UploadsTotal counts stored files by purpose.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appcontrol_uploads_total",
			Help: "Total number of stored uploads",
		},
		[]string{"purpose"},
	)

	// OrphanedFilesTotal counts files that could not be removed after their
	// record was deleted.
	OrphanedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appcontrol_orphaned_files_total",
			Help: "Total number of uploaded files left behind after a delete",
		},
	)

	// RecipeViewsTotal counts public single-recipe reads.
	RecipeViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appcontrol_recipe_views_total",
			Help: "Total number of public recipe views",
		},
	)
)

// RecordRequest records one finished HTTP request.
func RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthAttempt records a login or registration outcome.
func RecordAuthAttempt(action string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	AuthAttemptsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordReading(level glucose.Level) {
	GlucoseReadingsTotal.WithLabelValues(string(level)).Inc()
}

func RecordUpload(purpose string) {
	UploadsTotal.WithLabelValues(purpose).Inc()
}

func RecordOrphanedFile() {
	OrphanedFilesTotal.Inc()
}

func RecordRecipeView() {
	RecipeViewsTotal.Inc()
}
