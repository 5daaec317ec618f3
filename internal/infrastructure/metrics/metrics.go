package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 快取
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_lookups_total",
			Help: "Response cache lookups by provider, kind (search/recipe) and result (hit/miss/error)",
		},
		[]string{"provider", "kind", "result"},
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_writes_total",
			Help: "Response cache writes by provider, kind and result (ok/error)",
		},
		[]string{"provider", "kind", "result"},
	)

	// 供應商
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_provider_request_duration_seconds",
			Help:    "Live provider request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_provider_failures_total",
			Help: "Provider failures by provider and stage (search/get/store)",
		},
		[]string{"provider", "stage"},
	)

	ProviderRecipes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_provider_results",
			Help:    "Recipes returned per provider search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recipe_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HistoryClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipe_history_clients",
			Help: "Clients with a tracked recent-recipes queue",
		},
	)
)

// RecordCacheLookup 記錄一次快取查詢
func RecordCacheLookup(provider, kind, result string) {
	CacheLookups.WithLabelValues(provider, kind, result).Inc()
}

// RecordCacheWrite 記錄一次快取寫入
func RecordCacheWrite(provider, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CacheWrites.WithLabelValues(provider, kind, result).Inc()
}

// RecordProviderRequest 記錄一次供應商即時請求
func RecordProviderRequest(provider string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ProviderRequestDuration.WithLabelValues(provider, label).Observe(d.Seconds())
}

// RecordProviderFailure 記錄供應商失敗
func RecordProviderFailure(provider, stage string) {
	ProviderFailures.WithLabelValues(provider, stage).Inc()
}

// RecordHTTPRequest 記錄一次入站 HTTP 請求
func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}
