// Package metrics owns the service's Prometheus registry. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry      *prometheus.Registry
	riskAnalyses  *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	recoveries    *prometheus.CounterVec
	replyAnalyses *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		riskAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondthought_risk_analyses_total",
			Help: "Risk analyses completed, by the path that produced the result.",
		}, []string{"path"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondthought_model_fallbacks_total",
			Help: "Model analyses replaced by heuristic analysis, by cause.",
		}, []string{"reason"}),
		recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondthought_transcript_recoveries_total",
			Help: "Transcript recoveries from shared URLs, by extraction quality or error.",
		}, []string{"outcome"}),
		replyAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secondthought_reply_analyses_total",
			Help: "Live reply manipulation analyses, by whether a score was parsed.",
		}, []string{"parsed"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secondthought_llm_request_duration_seconds",
			Help:    "Language model request latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"provider", "operation"}),
	}
	m.registry.MustRegister(
		m.riskAnalyses,
		m.fallbacks,
		m.recoveries,
		m.replyAnalyses,
		m.llmDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RiskAnalysis(path string) {
	if m == nil {
		return
	}
	m.riskAnalyses.WithLabelValues(path).Inc()
}

func (m *Metrics) ModelFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) Recovery(outcome string) {
	if m == nil {
		return
	}
	m.recoveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReplyAnalysis(parsed bool) {
	if m == nil {
		return
	}
	m.replyAnalyses.WithLabelValues(strconv.FormatBool(parsed)).Inc()
}

// ObserveLLM records the latency of one model call.
func (m *Metrics) ObserveLLM(provider, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
