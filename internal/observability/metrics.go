// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec

	// Provider metrics
	ProviderCallLatency *prometheus.HistogramVec
	MarketResolutions   *prometheus.CounterVec
	MarketDeviations    prometheus.Counter
	TickerStreamUpdates prometheus.Counter
	TickerReconnects    prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Queue metrics
	MessagesPublished *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "defi_hub"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RateLimitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}, []string{"route"}),

		ProviderCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Upstream provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "outcome"}),
		MarketResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "resolutions_total",
			Help:      "Total number of market resolutions by primary source",
		}, []string{"source"}),
		MarketDeviations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price_deviation_warnings_total",
			Help:      "Total number of spot/perp price deviations above threshold",
		}),
		TickerStreamUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "ticker_stream_updates_total",
			Help:      "Total number of ticker updates received from the stream",
		}),
		TickerReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "ticker_stream_reconnects_total",
			Help:      "Total number of ticker stream reconnects",
		}),

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}, []string{"cache"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}, []string{"cache"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		MessagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "messages_published_total",
			Help:      "Total number of messages published by routing key and outcome",
		}, []string{"routing_key", "outcome"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method, status string, d time.Duration) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordRateLimited increments the rejection counter of a route.
func RecordRateLimited(route string) {
	DefaultMetrics.RateLimitRejections.WithLabelValues(route).Inc()
}

// RecordProviderCall records an upstream call. outcome is "ok", "miss" or "error".
func RecordProviderCall(provider, outcome string, d time.Duration) {
	DefaultMetrics.ProviderCallLatency.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// RecordMarketResolution counts a resolution by the source that answered.
func RecordMarketResolution(source string) {
	DefaultMetrics.MarketResolutions.WithLabelValues(source).Inc()
}

// RecordMarketDeviation counts a spot/perp deviation above threshold.
func RecordMarketDeviation() {
	DefaultMetrics.MarketDeviations.Inc()
}

// RecordTickerUpdate counts one stream message applied.
func RecordTickerUpdate() {
	DefaultMetrics.TickerStreamUpdates.Inc()
}

// RecordTickerReconnect counts one stream reconnect.
func RecordTickerReconnect() {
	DefaultMetrics.TickerReconnects.Inc()
}

// RecordCacheLookup counts a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		DefaultMetrics.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	DefaultMetrics.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, d time.Duration, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPublish counts one queue publish attempt.
func RecordPublish(routingKey string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.MessagesPublished.WithLabelValues(routingKey, outcome).Inc()
}
