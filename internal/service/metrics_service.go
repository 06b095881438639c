package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and
// outpass workflow transitions.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheLookups       *prometheus.CounterVec
	outpassSubmissions *prometheus.CounterVec
	outpassTransitions *prometheus.CounterVec
	outpassRejected    *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	outpassSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outpass_submissions_total",
		Help: "Outpass submissions by result",
	}, []string{"result"})

	outpassTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outpass_transitions_total",
		Help: "Committed outpass stage decisions",
	}, []string{"stage", "action", "overall"})

	outpassRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outpass_actions_refused_total",
		Help: "Stage actions refused before commit, by error code",
	}, []string{"stage", "code"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		outpassSubmissions, outpassTransitions, outpassRejected, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheLookups:       cacheLookups,
		outpassSubmissions: outpassSubmissions,
		outpassTransitions: outpassTransitions,
		outpassRejected:    outpassRejected,
	}
}

// Handler exposes the Prometheus scrape handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordOutpassSubmission counts a submission attempt ("accepted", "ineligible", "invalid").
func (m *MetricsService) RecordOutpassSubmission(result string) {
	if m == nil {
		return
	}
	m.outpassSubmissions.WithLabelValues(result).Inc()
}

// RecordOutpassTransition counts a committed stage decision.
func (m *MetricsService) RecordOutpassTransition(event models.OutpassEvent) {
	if m == nil {
		return
	}
	m.outpassTransitions.WithLabelValues(string(event.Stage), string(event.Action), string(event.OverallAfter)).Inc()
}

// RecordOutpassRefusal counts a stage action refused with the given error code.
func (m *MetricsService) RecordOutpassRefusal(stage models.OutpassStage, code string) {
	if m == nil {
		return
	}
	m.outpassRejected.WithLabelValues(string(stage), code).Inc()
}
