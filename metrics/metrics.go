package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "censo_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ListCacheLookups counts listing cache lookups by result (hit, miss, error)
	ListCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_list_cache_lookups_total",
		Help: "Total number of listing cache lookups",
	}, []string{"result"})

	// InstitutionWrites counts institution writes by operation
	InstitutionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_institution_writes_total",
		Help: "Total number of institution create, update and delete operations",
	}, []string{"operation"})

	// CensusRowsImported counts imported census rows by year
	CensusRowsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_import_rows_total",
		Help: "Total number of census rows imported",
	}, []string{"year"})

	// CensusFilesSkipped counts census files skipped by reason
	CensusFilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_import_files_skipped_total",
		Help: "Total number of census files skipped during import",
	}, []string{"reason"})

	// LocalitySyncRecords tracks the size of each dataset after its last sync
	LocalitySyncRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "censo_locality_records",
		Help: "Number of records stored by the last locality sync",
	}, []string{"dataset"})

	// LocalitySyncFailures counts failed dataset syncs
	LocalitySyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_locality_sync_failures_total",
		Help: "Total number of failed locality dataset syncs",
	}, []string{"dataset"})

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "censo_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"name"})

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "censo_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"name"})

	// HealthCheckFailures tracks health check failures
	HealthCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "censo_health_check_failures_total",
		Help: "Total number of health check failures",
	})
)

// RecordHTTPRequest records one handled request
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordListCacheLookup records a listing cache lookup result
func RecordListCacheLookup(result string) {
	ListCacheLookups.WithLabelValues(result).Inc()
}

// RecordInstitutionWrite increments the write counter for an operation
func RecordInstitutionWrite(operation string) {
	InstitutionWrites.WithLabelValues(operation).Inc()
}

// RecordCensusRows adds imported rows for a census year
func RecordCensusRows(year, rows int) {
	CensusRowsImported.WithLabelValues(strconv.Itoa(year)).Add(float64(rows))
}

// RecordCensusFileSkipped increments the skipped file counter
func RecordCensusFileSkipped(reason string) {
	CensusFilesSkipped.WithLabelValues(reason).Inc()
}

// SetLocalityRecords sets the stored record count of a dataset
func SetLocalityRecords(dataset string, count int) {
	LocalitySyncRecords.WithLabelValues(dataset).Set(float64(count))
}

// RecordLocalitySyncFailure increments the failure counter of a dataset
func RecordLocalitySyncFailure(dataset string) {
	LocalitySyncFailures.WithLabelValues(dataset).Inc()
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetCircuitBreakerState(name, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(name string) {
	CircuitBreakerTrips.WithLabelValues(name).Inc()
}

// RecordHealthCheckFailure increments the health check failure counter
func RecordHealthCheckFailure() {
	HealthCheckFailures.Inc()
}
