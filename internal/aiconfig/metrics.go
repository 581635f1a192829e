package aiconfig

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the routing engine
type Metrics struct {
	Resolutions      *prometheus.CounterVec // by source: static|database
	CacheEvents      *prometheus.CounterVec // by event: hit|miss
	FallbackAttempts *prometheus.CounterVec // by provider, status: success|failure
	Executions       *prometheus.CounterVec // by operation, outcome
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// InitMetrics initializes the engine's Prometheus metrics (once per process)
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "lexflow_ai_config_resolutions_total",
				Help: "Total operation config resolutions by source",
			}, []string{"source"}),

			CacheEvents: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "lexflow_ai_config_cache_events_total",
				Help: "Resolution cache hits and misses",
			}, []string{"event"}),

			FallbackAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "lexflow_ai_fallback_attempts_total",
				Help: "Provider attempts during fallback execution",
			}, []string{"provider", "status"}),

			Executions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "lexflow_ai_executions_total",
				Help: "Fallback executions by operation and terminal outcome",
			}, []string{"operation", "outcome"}),
		}
	})
	return metricsInstance
}

func (m *Metrics) countResolution(source string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(source).Inc()
}

func (m *Metrics) countCacheEvent(event string) {
	if m == nil {
		return
	}
	m.CacheEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) countAttempt(provider, status string) {
	if m == nil {
		return
	}
	m.FallbackAttempts.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) countExecution(operation, outcome string) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(operation, outcome).Inc()
}
