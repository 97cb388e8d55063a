// Package metrics provides Prometheus metrics collection for the compiler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

const namespace = "trv"

// Collector holds the Prometheus metrics of one compiler process.
// It implements ports.Metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	// File metrics
	FilesTotal   *prometheus.CounterVec
	FileDuration *prometheus.HistogramVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Batch metrics
	BatchesTotal *prometheus.CounterVec
	Generation   prometheus.Gauge
}

// New creates a collector on a fresh registry that also carries the Go and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a collector registering its metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Total number of files leaving a compile batch, by outcome",
			},
			[]string{"outcome"},
		),
		FileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "file_duration_seconds",
				Help:      "Time spent on one file, by outcome",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of cache lookups, by result",
			},
			[]string{"result"},
		),

		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of compile batches, by status",
			},
			[]string{"status"},
		),
		Generation: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "manifest_generation",
				Help:      "Generation of the last committed manifest",
			},
		),
	}
}

// FileCompiled records one file leaving a batch.
func (c *Collector) FileCompiled(outcome ports.Outcome, elapsed time.Duration) {
	c.FilesTotal.WithLabelValues(string(outcome)).Inc()
	c.FileDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// CacheLookup records a cache lookup result.
func (c *Collector) CacheLookup(result string) {
	c.CacheLookups.WithLabelValues(result).Inc()
}

// BatchFinished records a batch status and the manifest generation after it.
func (c *Collector) BatchFinished(status string, generation uint64) {
	c.BatchesTotal.WithLabelValues(status).Inc()
	c.Generation.Set(float64(generation))
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
