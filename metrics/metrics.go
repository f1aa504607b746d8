// Package metrics exposes Prometheus instrumentation for dataset loads and
// filter requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentiment_dashboard"

// Recorder owns a registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	loads          *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	datasetRows    *prometheus.GaugeVec
	filterRequests *prometheus.CounterVec
	filterDuration prometheus.Histogram
	filteredRows   prometheus.Histogram
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent fetching and parsing the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded dataset per source.",
		}, []string{"source"}),
		filterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_requests_total",
			Help:      "Filter pipeline runs by endpoint and whether the result was empty.",
		}, []string{"endpoint", "empty"}),
		filterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_duration_seconds",
			Help:      "Filter pipeline latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		filteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows left after filtering.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.loads, r.loadDuration, r.datasetRows,
		r.filterRequests, r.filterDuration, r.filteredRows,
	)
	return r
}

// ObserveLoad records one dataset load attempt.
func (r *Recorder) ObserveLoad(source string, rows int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.loads.WithLabelValues(result).Inc()
	r.loadDuration.Observe(elapsed.Seconds())
	if err == nil {
		r.datasetRows.WithLabelValues(source).Set(float64(rows))
	}
}

// ObserveFilter records one filter pipeline run.
func (r *Recorder) ObserveFilter(endpoint string, rows int, elapsed time.Duration) {
	empty := "false"
	if rows == 0 {
		empty = "true"
	}
	r.filterRequests.WithLabelValues(endpoint, empty).Inc()
	r.filterDuration.Observe(elapsed.Seconds())
	r.filteredRows.Observe(float64(rows))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
