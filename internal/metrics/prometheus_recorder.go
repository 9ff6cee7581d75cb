package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

const namespace = "docsite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg               *prom.Registry
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	pageDuration      prom.Histogram
	pageResults       *prom.CounterVec
	brokenLinks       prom.Counter
	anchorIssues      *prom.CounterVec
	renderConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "page_render_duration_seconds",
		Help:      "Duration of individual page renders",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "page_results_total",
		Help:      "Rendered pages by result",
	}, []string{"result"})
	pr.brokenLinks = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "broken_links_total",
		Help:      "Local links whose target file is not part of the site",
	})
	pr.anchorIssues = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "anchor_issues_total",
		Help:      "Unresolved anchor references by validity",
	}, []string{"validity"})
	pr.renderConcurrency = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "render_concurrency",
		Help:      "Page render concurrency of the last build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.pageDuration, pr.pageResults, pr.brokenLinks, pr.anchorIssues, pr.renderConcurrency)
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

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddBrokenLinks(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.brokenLinks.Add(float64(n))
}

func (p *PrometheusRecorder) AddAnchorIssues(validity string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.anchorIssues.WithLabelValues(validity).Add(float64(n))
}

func (p *PrometheusRecorder) SetRenderConcurrency(n int) {
	if p == nil {
		return
	}
	p.renderConcurrency.Set(float64(n))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for node_exporter's textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("path", path).Build()
	}
	return nil
}

// HTTPHandler serves the recorder's registry.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
