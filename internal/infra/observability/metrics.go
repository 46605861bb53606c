package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger client.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	apiDuration  *prometheus.HistogramVec
	apiErrors    *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	entriesShown prometheus.Gauge
	staleLoads   prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// client metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		apiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_api_request_duration_seconds",
				Help:    "Duration of backend API calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_api_errors_total",
				Help: "Total failed backend API calls by error kind.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		entriesShown: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_entries_loaded",
				Help: "Number of entries in the most recently loaded collection.",
			},
		),
		staleLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_stale_loads_discarded_total",
				Help: "Entry fetches discarded because a newer fetch or session superseded them.",
			},
		),
	}
}

// RecordAPIDuration records the duration of a backend call.
func (m *Metrics) RecordAPIDuration(operation string, d time.Duration) {
	m.apiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrAPIError increments the API error counter ("network", "http", ...).
func (m *Metrics) IncrAPIError(kind string) {
	m.apiErrors.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// SetEntriesLoaded records the size of the latest entry collection.
func (m *Metrics) SetEntriesLoaded(n int) {
	m.entriesShown.Set(float64(n))
}

// IncrStaleLoad counts a fetch result that arrived too late to apply.
func (m *Metrics) IncrStaleLoad() {
	m.staleLoads.Inc()
}

// Snapshot is a point-in-time view of the counters, for status output.
type Snapshot struct {
	NetworkErrors float64 `json:"networkErrors"`
	HTTPErrors    float64 `json:"httpErrors"`
	StaleLoads    float64 `json:"staleLoads"`
	CacheHitRate  float64 `json:"cacheHitRate"`
}

// Snapshot gathers the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	hits := getCounterValue(m.cacheHits.WithLabelValues("board"))
	misses := getCounterValue(m.cacheMisses.WithLabelValues("board"))

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return Snapshot{
		NetworkErrors: getCounterValue(m.apiErrors.WithLabelValues("network")),
		HTTPErrors:    getCounterValue(m.apiErrors.WithLabelValues("http")),
		StaleLoads:    getCounterValue(m.staleLoads),
		CacheHitRate:  hitRate,
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
