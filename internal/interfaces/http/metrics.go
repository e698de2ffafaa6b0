package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds all Prometheus metrics for the screener.
type MetricsRegistry struct {
	registry *prometheus.Registry

	// Stage duration metrics
	StageDuration *prometheus.HistogramVec

	// Cache performance metrics
	CacheHitRatio prometheus.Gauge
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec

	// Screening metrics
	ActiveScreens   prometheus.Gauge
	TotalScreens    prometheus.Counter
	StocksEvaluated prometheus.Counter
	StocksMatched   prometheus.Counter
}

// NewMetricsRegistry creates a metrics registry backed by its own
// Prometheus registry so repeated construction never double-registers.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garprun_stage_duration_seconds",
				Help:    "Duration of each screening stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"stage", "result"},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "garprun_cache_hit_ratio",
				Help: "Current cache hit ratio (0.0 to 1.0)",
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garprun_cache_hits_total",
				Help: "Total number of cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garprun_cache_misses_total",
				Help: "Total number of cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garprun_provider_requests_total",
				Help: "Total number of provider requests by endpoint",
			},
			[]string{"provider", "endpoint"},
		),

		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garprun_provider_errors_total",
				Help: "Total number of provider errors by endpoint",
			},
			[]string{"provider", "endpoint"},
		),

		ActiveScreens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "garprun_active_screens",
				Help: "Number of currently running screening passes",
			},
		),

		TotalScreens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "garprun_screens_total",
				Help: "Total number of screening passes started",
			},
		),

		StocksEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "garprun_stocks_evaluated_total",
				Help: "Total number of stocks run through the filter engine",
			},
		),

		StocksMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "garprun_stocks_matched_total",
				Help: "Total number of stocks that passed all filter rules",
			},
		),
	}

	m.registry.MustRegister(
		m.StageDuration,
		m.CacheHitRatio,
		m.CacheHits,
		m.CacheMisses,
		m.ProviderRequests,
		m.ProviderErrors,
		m.ActiveScreens,
		m.TotalScreens,
		m.StocksEvaluated,
		m.StocksMatched,
	)

	return m
}

// StageTimer tracks execution time for one screening stage.
type StageTimer struct {
	metrics *MetricsRegistry
	stage   string
	start   time.Time
}

// StartStageTimer begins timing a screening stage.
func (m *MetricsRegistry) StartStageTimer(stage string) *StageTimer {
	return &StageTimer{
		metrics: m,
		stage:   stage,
		start:   time.Now(),
	}
}

// Stop completes the stage timing and records the observation.
func (st *StageTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.metrics.StageDuration.WithLabelValues(st.stage, result).Observe(duration.Seconds())

	log.Debug().
		Str("stage", st.stage).
		Str("result", result).
		Dur("duration", duration).
		Msg("Screening stage completed")
}

// RecordCacheHit records a cache hit for the specified cache type.
func (m *MetricsRegistry) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
	m.updateCacheHitRatio()
}

// RecordCacheMiss records a cache miss for the specified cache type.
func (m *MetricsRegistry) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
	m.updateCacheHitRatio()
}

// RecordProviderRequest records one outbound provider call.
func (m *MetricsRegistry) RecordProviderRequest(provider, endpoint string) {
	m.ProviderRequests.WithLabelValues(provider, endpoint).Inc()
}

// RecordProviderError records a failed provider call.
func (m *MetricsRegistry) RecordProviderError(provider, endpoint string) {
	m.ProviderErrors.WithLabelValues(provider, endpoint).Inc()
	log.Warn().
		Str("provider", provider).
		Str("endpoint", endpoint).
		Msg("Provider error recorded")
}

// ScreenStarted marks the beginning of a screening pass.
func (m *MetricsRegistry) ScreenStarted() {
	m.ActiveScreens.Inc()
	m.TotalScreens.Inc()
}

// ScreenFinished marks the end of a screening pass.
func (m *MetricsRegistry) ScreenFinished(evaluated, matched int) {
	m.ActiveScreens.Dec()
	m.StocksEvaluated.Add(float64(evaluated))
	m.StocksMatched.Add(float64(matched))
}

// updateCacheHitRatio recomputes the hit ratio gauge from the counters.
func (m *MetricsRegistry) updateCacheHitRatio() {
	sample := &io_prometheus_client.Metric{}

	totalHits := 0.0
	totalMisses := 0.0

	cacheTypes := []string{"fundamentals", "news", "history", "quotes"}
	for _, cacheType := range cacheTypes {
		if hitCounter, err := m.CacheHits.GetMetricWithLabelValues(cacheType); err == nil {
			if err := hitCounter.Write(sample); err == nil {
				totalHits += sample.GetCounter().GetValue()
			}
		}
		if missCounter, err := m.CacheMisses.GetMetricWithLabelValues(cacheType); err == nil {
			if err := missCounter.Write(sample); err == nil {
				totalMisses += sample.GetCounter().GetValue()
			}
		}
	}

	total := totalHits + totalMisses
	if total > 0 {
		m.CacheHitRatio.Set(totalHits / total)
	}
}

// Handler returns an HTTP handler serving this registry's metrics.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
