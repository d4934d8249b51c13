package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Authentication / authorization error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_token", "missing_token", "invalid_credentials", ...
	)

	// Lead creation counter by origin
	LeadCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"source"}, // "direct" or "import"
	)

	// Duplicate detections during import preview
	DuplicateDetectedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_import_duplicates_total",
			Help: "Total number of duplicate leads detected at preview time",
		},
	)

	// Import row outcomes
	ImportRowCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_import_rows_total",
			Help: "Total number of processed import rows by outcome",
		},
		[]string{"outcome"}, // "valid", "invalid", "duplicate", "created", "failed"
	)

	// Import batch terminal states
	ImportBatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_import_batches_total",
			Help: "Total number of import batches by final status",
		},
		[]string{"status"},
	)

	// Outreach message generation
	ContactEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_contact_events_total",
			Help: "Total number of outreach attempts recorded",
		},
		[]string{"result"}, // "success" or "failure"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leads_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leads_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leads_info",
			Help: "Information about the leads backend",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(LeadCreatedCounter)
	prometheus.MustRegister(DuplicateDetectedCounter)
	prometheus.MustRegister(ImportRowCounter)
	prometheus.MustRegister(ImportBatchCounter)
	prometheus.MustRegister(ContactEventCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}
