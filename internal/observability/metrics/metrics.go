package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "taxis_"

	ResultSuccess = "success"
	ResultError   = "error"

	// aggregation results
	ResultReport = "report"
	ResultEmpty  = "empty"
)

var (
	registerOnce sync.Once

	datasetLoads   *prometheus.CounterVec
	datasetRecords prometheus.Gauge

	aggregationsTotal  *prometheus.CounterVec
	aggregationLatency prometheus.Histogram

	exportsTotal  *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	cacheLookups  *prometheus.CounterVec
	queueMessages *prometheus.CounterVec
)

// Init registers the metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		datasetLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_loads_total",
				Help: "Total dataset loads by result",
			},
			[]string{"result"},
		)
		datasetRecords = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dataset_records",
				Help: "Trip records in the loaded snapshot",
			},
		)
		aggregationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregations_total",
				Help: "Total aggregations by result (report or empty)",
			},
			[]string{"result"},
		)
		aggregationLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregation_latency_seconds",
				Help:    "Aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export rendering latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)
		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_cache_lookups_total",
				Help: "Report cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		)
		queueMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "queue_messages_total",
				Help: "Export queue messages by direction and result",
			},
			[]string{"direction", "result"},
		)

		prometheus.MustRegister(
			datasetLoads,
			datasetRecords,
			aggregationsTotal,
			aggregationLatency,
			exportsTotal,
			exportLatency,
			httpRequests,
			httpLatency,
			cacheLookups,
			queueMessages,
		)
	})
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveLoad records a dataset load and, on success, the snapshot size.
func ObserveLoad(records int, err error) {
	if datasetLoads != nil {
		datasetLoads.WithLabelValues(resultOf(err)).Inc()
	}
	if err == nil && datasetRecords != nil {
		datasetRecords.Set(float64(records))
	}
}

// ObserveAggregation records one aggregation. empty marks an absent report.
func ObserveAggregation(empty bool, duration time.Duration) {
	result := ResultReport
	if empty {
		result = ResultEmpty
	}
	if aggregationsTotal != nil {
		aggregationsTotal.WithLabelValues(result).Inc()
	}
	if aggregationLatency != nil {
		aggregationLatency.Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

func ObserveHTTP(method string, status int, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

func IncCacheLookup(hit bool) {
	if cacheLookups == nil {
		return
	}
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
	}
}

// IncQueueMessage counts a published or consumed export request.
func IncQueueMessage(direction string, err error) {
	if queueMessages != nil {
		queueMessages.WithLabelValues(direction, resultOf(err)).Inc()
	}
}
