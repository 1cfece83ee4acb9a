package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	pages         prom.Counter
	links         *prom.CounterVec
	copies        *prom.CounterVec
	warnings      *prom.CounterVec
}

// NewPrometheusRecorder constructs the campus metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "campus",
			Name:      "stage_duration_seconds",
			Help:      "Duration of per-directory generation stages",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "campus",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "campus",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pages: prom.NewCounter(prom.CounterOpts{
			Namespace: "campus",
			Name:      "pages_written_total",
			Help:      "Pages written to the output tree",
		}),
		links: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "campus",
			Name:      "links_total",
			Help:      "Links discovered by classification kind",
		}, []string{"kind"}),
		copies: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "campus",
			Name:      "file_copies_total",
			Help:      "Referenced file copies by result",
		}, []string{"result"}),
		warnings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "campus",
			Name:      "warnings_total",
			Help:      "Non-fatal generation warnings by category",
		}, []string{"category"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.pages, pr.links, pr.copies, pr.warnings)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncPages() {
	if p == nil {
		return
	}
	p.pages.Inc()
}

func (p *PrometheusRecorder) IncLink(kind string) {
	if p == nil {
		return
	}
	p.links.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncCopy(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.copies.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncWarning(category string) {
	if p == nil {
		return
	}
	p.warnings.WithLabelValues(category).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
