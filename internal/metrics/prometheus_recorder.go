package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "metricstd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	reg             *prom.Registry
	scanDuration    prom.Histogram
	filesScanned    prom.Counter
	filesSkipped    *prom.CounterVec
	inconsistencies *prom.CounterVec
	fixResults      *prom.CounterVec
	registrySize    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.scanDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of consistency scans",
			Buckets:   prom.DefBuckets,
		})
		pr.filesScanned = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Source files read by the consistency checker",
		})
		pr.filesSkipped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Source files skipped by reason",
		}, []string{"reason"})
		pr.inconsistencies = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistencies_total",
			Help:      "Inconsistencies found by type and severity",
		}, []string{"type", "severity"})
		pr.fixResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fix_results_total",
			Help:      "Auto-fix outcomes",
		}, []string{"outcome"})
		pr.registrySize = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_definitions",
			Help:      "Number of definitions in the registry",
		})
		reg.MustRegister(pr.scanDuration, pr.filesScanned, pr.filesSkipped, pr.inconsistencies, pr.fixResults, pr.registrySize)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveScanDuration(d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFilesScanned() {
	if p == nil || p.filesScanned == nil {
		return
	}
	p.filesScanned.Inc()
}

func (p *PrometheusRecorder) IncFilesSkipped(reason string) {
	if p == nil || p.filesSkipped == nil {
		return
	}
	p.filesSkipped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncInconsistency(issueType, severity string) {
	if p == nil || p.inconsistencies == nil {
		return
	}
	p.inconsistencies.WithLabelValues(issueType, severity).Inc()
}

func (p *PrometheusRecorder) IncFixResult(outcome FixOutcome) {
	if p == nil || p.fixResults == nil {
		return
	}
	p.fixResults.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetRegistrySize(n int) {
	if p == nil || p.registrySize == nil {
		return
	}
	p.registrySize.Set(float64(n))
}

// WriteTextfile writes the current metric values in the text exposition
// format, suitable for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	return prom.WriteToTextfile(path, p.reg)
}

// Handler returns an http.Handler that serves the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
