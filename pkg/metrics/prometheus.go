package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusConfig defines the configuration for Prometheus metrics.
type PrometheusConfig struct {
	Registry  *prometheus.Registry // Registry to register collectors with; a new one is created when nil
	Namespace string               // Namespace for metrics
	Subsystem string               // Subsystem for metrics
	Buckets   []float64            // Latency histogram buckets in seconds; prometheus.DefBuckets when empty
}

// PrometheusCollector implements Collector using the Prometheus client library.
type PrometheusCollector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewPrometheusCollector creates the request metrics and registers them.
// It fails if metrics with the same names are already registered.
func NewPrometheusCollector(config PrometheusConfig) (*PrometheusCollector, error) {
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	labels := []string{"method", "route", "status"}

	c := &PrometheusCollector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, labels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Time spent processing HTTP requests.",
			Buckets:   buckets,
		}, labels),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "response_bytes_total",
			Help:      "Total number of response body bytes written.",
		}, labels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed.",
		}),
	}

	for _, collector := range []prometheus.Collector{c.requests, c.latency, c.bytes, c.inFlight} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RequestStarted increments the in-flight gauge.
func (c *PrometheusCollector) RequestStarted() {
	c.inFlight.Inc()
}

// RequestFinished records the request count, latency and response size.
func (c *PrometheusCollector) RequestFinished(o Observation) {
	c.inFlight.Dec()

	route := o.Route
	if route == "" {
		route = UnmatchedRoute
	}
	labels := prometheus.Labels{
		"method": o.Method,
		"route":  route,
		"status": strconv.Itoa(o.Status),
	}

	c.requests.With(labels).Inc()
	c.latency.With(labels).Observe(o.Duration.Seconds())
	if o.Bytes > 0 {
		c.bytes.With(labels).Add(float64(o.Bytes))
	}
}

// Registry returns the registry the metrics are registered with.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry in the Prometheus text format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
