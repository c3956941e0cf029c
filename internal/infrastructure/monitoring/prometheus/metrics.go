package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the service metrics.  It implements the metric hooks of
// the search service, the loader and the HTTP middleware.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Search
	SearchesTotal     CounterVec
	SearchDuration    HistogramVec
	SearchResultCount HistogramVec
	SearchErrorsTotal CounterVec
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec

	// Ingest
	IngestRecordsTotal  CounterVec
	IngestBatchesTotal  CounterVec
	IngestBatchDuration HistogramVec

	// Health
	HealthCheckStatus GaugeVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSizeBuckets          = []float64{100, 1000, 10000, 100000, 1000000}
	DefaultResultCountBuckets   = []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000}
	DefaultBatchDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.SearchesTotal = collector.RegisterCounter("searches_total", "Executed searches", "route", "fallback", "approximate")
	m.SearchDuration = collector.RegisterHistogram("search_duration_seconds", "Search duration", DefaultHTTPDurationBuckets, "route")
	m.SearchResultCount = collector.RegisterHistogram("search_result_total", "Total matches per search", DefaultResultCountBuckets, "route")
	m.SearchErrorsTotal = collector.RegisterCounter("search_errors_total", "Failed searches", "route")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.IngestRecordsTotal = collector.RegisterCounter("ingest_records_total", "Records processed by the loader", "outcome")
	m.IngestBatchesTotal = collector.RegisterCounter("ingest_batches_total", "Upsert batches", "status")
	m.IngestBatchDuration = collector.RegisterHistogram("ingest_batch_duration_seconds", "Upsert batch duration", DefaultBatchDurationBuckets)

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

// ObserveSearch records one search.
func (m *AppMetrics) ObserveSearch(route string, fallback, approximate bool, total int64, d time.Duration, err error) {
	m.SearchDuration.WithLabelValues(route).Observe(d.Seconds())
	if err != nil {
		m.SearchErrorsTotal.WithLabelValues(route).Inc()
		return
	}
	m.SearchesTotal.WithLabelValues(route, strconv.FormatBool(fallback), strconv.FormatBool(approximate)).Inc()
	m.SearchResultCount.WithLabelValues(route).Observe(float64(total))
}

// ObserveCache records a cache lookup.
func (m *AppMetrics) ObserveCache(kind string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(kind).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveIngestBatch records one upsert batch.
func (m *AppMetrics) ObserveIngestBatch(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.IngestBatchesTotal.WithLabelValues(status).Inc()
	m.IngestBatchDuration.WithLabelValues().Observe(d.Seconds())
}

// ObserveIngestRecords counts records by outcome (loaded, skipped, failed).
func (m *AppMetrics) ObserveIngestRecords(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.IngestRecordsTotal.WithLabelValues(outcome).Add(float64(n))
}

// RecordHTTPRequest records a completed request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration, respSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	if respSize >= 0 {
		m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// RequestStarted tracks an in-flight request until the returned func runs.
func (m *AppMetrics) RequestStarted(method string) func() {
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// SetComponentHealth publishes the latest health probe result.
func (m *AppMetrics) SetComponentHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
