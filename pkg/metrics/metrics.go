package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the quote service collectors. All Record methods are safe to
// call on a nil *Metrics so components can run without instrumentation.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Quote metrics
	ComparisonsTotal      *prometheus.CounterVec
	ComparisonDuration    *prometheus.HistogramVec
	QuantitiesPerRequest  prometheus.Histogram
	QuoteLinesCalculated  prometheus.Counter
	CacheResults          *prometheus.CounterVec
	CacheEntries          prometheus.Gauge
	RateLimitedTotal      prometheus.Counter
	MinimumQuantityWarned prometheus.Counter

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "pouchworks",
	}
}

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	constLabels := prometheus.Labels{"service": config.ServiceName}
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: constLabels,
		},
	)

	m.ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "quote_comparisons_total",
			Help:        "Multi-quantity comparisons by outcome code",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	m.ComparisonDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "quote_comparison_duration_seconds",
			Help:        "Time spent producing a comparison, split by cache status",
			Buckets:     []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 6},
			ConstLabels: constLabels,
		},
		[]string{"cached"},
	)

	m.QuantitiesPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "quote_quantities_per_request",
			Help:        "Number of candidate quantities per comparison request",
			Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
			ConstLabels: constLabels,
		},
	)

	m.QuoteLinesCalculated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "quote_lines_calculated_total",
			Help:        "Per-quantity price calculations executed",
			ConstLabels: constLabels,
		},
	)

	m.CacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "quote_cache_results_total",
			Help:        "Comparison cache lookups by result (hit, miss, coalesced)",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)

	m.CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "quote_cache_entries",
			Help:        "Entries currently held by the comparison cache",
			ConstLabels: constLabels,
		},
	)

	m.RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "rate_limited_requests_total",
			Help:        "Requests rejected by the per-caller rate limiter",
			ConstLabels: constLabels,
		},
	)

	m.MinimumQuantityWarned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "quote_minimum_quantity_warnings_total",
			Help:        "Quote lines priced below the processing minimum quantity",
			ConstLabels: constLabels,
		},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ComparisonsTotal,
		m.ComparisonDuration,
		m.QuantitiesPerRequest,
		m.QuoteLinesCalculated,
		m.CacheResults,
		m.CacheEntries,
		m.RateLimitedTotal,
		m.MinimumQuantityWarned,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Dec()
}

// RecordComparison records a finished comparison. outcome is "success" or an error code.
func (m *Metrics) RecordComparison(outcome string, quantities int, cached bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.WithLabelValues(outcome).Inc()
	if quantities > 0 {
		m.QuantitiesPerRequest.Observe(float64(quantities))
	}
	m.ComparisonDuration.WithLabelValues(strconv.FormatBool(cached)).Observe(duration.Seconds())
}

// RecordQuoteLines counts executed per-quantity calculations
func (m *Metrics) RecordQuoteLines(n int) {
	if m == nil {
		return
	}
	m.QuoteLinesCalculated.Add(float64(n))
}

// RecordCacheResult records a comparison cache lookup
func (m *Metrics) RecordCacheResult(result string, entries int) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(result).Inc()
	m.CacheEntries.Set(float64(entries))
}

// RecordRateLimited counts a rejected request
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// RecordMinimumQuantityWarning counts lines priced under the option minimum
func (m *Metrics) RecordMinimumQuantityWarning(n int) {
	if m == nil || n == 0 {
		return
	}
	m.MinimumQuantityWarned.Add(float64(n))
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
