package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects request and relay counters on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	proxyErrors prometheus.Counter
	remounts    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainui",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chainui",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		proxyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainui",
			Subsystem: "proxy",
			Name:      "upstream_errors_total",
			Help:      "Relayed requests that failed to reach the backend",
		}),
		remounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainui",
			Subsystem: "app",
			Name:      "remounts_total",
			Help:      "Development remounts after bundle changes",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.proxyErrors,
		m.remounts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.observe(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func (m *Metrics) observe(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ProxyError matches devproxy.WithErrorHook.
func (m *Metrics) ProxyError(_ *http.Request, _ error) {
	m.proxyErrors.Inc()
}

// Remount records a development remount result.
func (m *Metrics) Remount(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.remounts.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
