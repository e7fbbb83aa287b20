package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Factor engine metrics
	FactorComputationsTotal *prometheus.CounterVec
	FactorComputeDuration   *prometheus.HistogramVec
	FactorWarningsTotal     *prometheus.CounterVec
	BatchInstrumentsTotal   *prometheus.CounterVec

	// Indicator pipeline metrics
	IndicatorApplyDuration *prometheus.HistogramVec
	IndicatorCacheTotal    *prometheus.CounterVec

	// Price resolver metrics
	ResolverQueriesTotal  *prometheus.CounterVec
	ResolverFallbackTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		FactorComputationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "engine",
				Name:      "computations_total",
				Help:      "Total number of per-instrument factor computations",
			},
			[]string{"status"},
		),
		FactorComputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "factorflow",
				Subsystem: "engine",
				Name:      "compute_duration_seconds",
				Help:      "Duration of per-instrument factor computations in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"status"},
		),
		FactorWarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "engine",
				Name:      "warnings_total",
				Help:      "Total number of guarded conditions hit during factor computation",
			},
			[]string{"kind"},
		),
		BatchInstrumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "engine",
				Name:      "batch_instruments_total",
				Help:      "Total number of instruments processed by batch runs",
			},
			[]string{"outcome"},
		),
		IndicatorApplyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "factorflow",
				Subsystem: "indicator",
				Name:      "apply_duration_seconds",
				Help:      "Duration of indicator pipeline application in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"kind"},
		),
		IndicatorCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "indicator",
				Name:      "cache_total",
				Help:      "Indicator cache lookups by result",
			},
			[]string{"result"},
		),
		ResolverQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "resolver",
				Name:      "queries_total",
				Help:      "Total number of adjusted price queries by mode and source tier",
			},
			[]string{"mode", "source"},
		),
		ResolverFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "resolver",
				Name:      "fallback_total",
				Help:      "Total number of adjusted price queries that fell back to raw prices",
			},
			[]string{"mode"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "factorflow",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "factorflow",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "factorflow",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordFactorComputation records one per-instrument factor computation
func (m *Metrics) RecordFactorComputation(status string, duration time.Duration) {
	m.FactorComputationsTotal.WithLabelValues(status).Inc()
	m.FactorComputeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFactorWarning records a guarded condition hit during computation
func (m *Metrics) RecordFactorWarning(kind string) {
	m.FactorWarningsTotal.WithLabelValues(kind).Inc()
}

// RecordBatchInstrument records the outcome of one instrument in a batch run
func (m *Metrics) RecordBatchInstrument(outcome string) {
	m.BatchInstrumentsTotal.WithLabelValues(outcome).Inc()
}

// RecordIndicatorApply records the duration of one indicator family computation
func (m *Metrics) RecordIndicatorApply(kind string, duration time.Duration) {
	m.IndicatorApplyDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordIndicatorCache records an indicator cache hit or miss
func (m *Metrics) RecordIndicatorCache(result string) {
	m.IndicatorCacheTotal.WithLabelValues(result).Inc()
}

// RecordResolverQuery records an adjusted price query and the tier that served it
func (m *Metrics) RecordResolverQuery(mode, source string) {
	m.ResolverQueriesTotal.WithLabelValues(mode, source).Inc()
}

// RecordResolverFallback records a query that degraded to raw prices
func (m *Metrics) RecordResolverFallback(mode string) {
	m.ResolverFallbackTotal.WithLabelValues(mode).Inc()
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveCompute records the factor computation duration and status
func (t *Timer) ObserveCompute(status string) {
	t.metrics.RecordFactorComputation(status, time.Since(t.start))
}

// ObserveIndicator records the indicator family duration
func (t *Timer) ObserveIndicator(kind string) {
	t.metrics.RecordIndicatorApply(kind, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
