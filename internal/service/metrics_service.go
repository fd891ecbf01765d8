package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/mellowboard/internal/models"
)

// Reasons a cell produced no log.
const (
	SkipBlank              = "blank"
	SkipAlreadyRecorded    = "already_recorded"
	SkipConflict           = "conflict"
	SkipUnknownParticipant = "unknown_participant"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	runDuration     *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	logsInserted    *prometheus.CounterVec
	cellsSkipped    *prometheus.CounterVec
	lastSuccess     prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	runCount             uint64
	runFailureCount      uint64
	insertedCount        uint64
	lastSuccessUnixNano  int64
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingestion_run_duration_seconds",
		Help:    "Duration of ingestion runs",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"trigger", "status"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_runs_total",
		Help: "Total ingestion runs by outcome",
	}, []string{"trigger", "status"})

	logsInserted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_logs_inserted_total",
		Help: "Activity logs written by ingestion runs",
	}, []string{"kind"})

	cellsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_cells_skipped_total",
		Help: "Sheet cells that produced no new activity log",
	}, []string{"kind", "reason"})

	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingestion_last_success_timestamp_seconds",
		Help: "Unix time of the last successful ingestion run",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		runDuration, runsTotal, logsInserted, cellsSkipped, lastSuccess, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		runDuration:     runDuration,
		runsTotal:       runsTotal,
		logsInserted:    logsInserted,
		cellsSkipped:    cellsSkipped,
		lastSuccess:     lastSuccess,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveIngestionRun records the outcome of one run.
func (m *MetricsService) ObserveIngestionRun(trigger models.IngestionTrigger, status models.IngestionRunStatus, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(string(trigger), string(status)).Observe(duration.Seconds())
	m.runsTotal.WithLabelValues(string(trigger), string(status)).Inc()
	atomic.AddUint64(&m.runCount, 1)
	if status == models.IngestionFailed {
		atomic.AddUint64(&m.runFailureCount, 1)
		return
	}
	m.lastSuccess.Set(float64(finishedAt.Unix()))
	atomic.StoreInt64(&m.lastSuccessUnixNano, finishedAt.UnixNano())
}

// AddInsertedLogs counts logs written for a kind.
func (m *MetricsService) AddInsertedLogs(kind models.LogKind, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.logsInserted.WithLabelValues(string(kind)).Add(float64(n))
	atomic.AddUint64(&m.insertedCount, uint64(n))
}

// AddSkippedCells counts cells that did not produce a log.
func (m *MetricsService) AddSkippedCells(kind models.LogKind, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cellsSkipped.WithLabelValues(string(kind), reason).Add(float64(n))
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var lastSuccess *time.Time
	if nanos := atomic.LoadInt64(&m.lastSuccessUnixNano); nanos > 0 {
		ts := time.Unix(0, nanos).UTC()
		lastSuccess = &ts
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		IngestionRuns:            atomic.LoadUint64(&m.runCount),
		IngestionFailures:        atomic.LoadUint64(&m.runFailureCount),
		LogsInserted:             atomic.LoadUint64(&m.insertedCount),
		LastSuccessfulRunAt:      lastSuccess,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
