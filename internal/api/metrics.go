package api

import (
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the prometheus instruments for the serve path. Each server
// owns its registry so tests can build servers side by side.
type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "w3ledger",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "w3ledger",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "path"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "w3ledger",
			Subsystem: "portfolio",
			Name:      "fallbacks_total",
			Help:      "Token reads that degraded to a fallback value",
		}, []string{"field"}),
	}
}

// middleware records one count and one duration observation per request.
// The route template is used as the path label so /portfolio/:account stays
// one series.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// fallbackHook adapts the fallback counter to the aggregator's hook shape.
func (m *metrics) fallbackHook() func(common.Address, string) {
	return func(_ common.Address, field string) {
		m.fallbacks.WithLabelValues(field).Inc()
	}
}
