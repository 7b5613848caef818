package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.RiskAnalysis("model")
	m.RiskAnalysis("heuristic")
	m.RiskAnalysis("heuristic")
	m.ModelFallback("validation")
	m.Recovery("poor")
	m.ReplyAnalysis(false)

	if got := testutil.ToFloat64(m.riskAnalyses.WithLabelValues("heuristic")); got != 2 {
		t.Errorf("expected 2 heuristic analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("validation")); got != 1 {
		t.Errorf("expected 1 validation fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.recoveries.WithLabelValues("poor")); got != 1 {
		t.Errorf("expected 1 poor recovery, got %v", got)
	}
	if got := testutil.ToFloat64(m.replyAnalyses.WithLabelValues("false")); got != 1 {
		t.Errorf("expected 1 unparsed reply analysis, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RiskAnalysis("model")
	m.ModelFallback("transport")
	m.Recovery("error")
	m.ReplyAnalysis(true)
	m.ObserveLLM("openai", "generate", time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 from nil metrics handler, got %d", w.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RiskAnalysis("model")
	m.ObserveLLM("anthropic", "complete", 300*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`secondthought_risk_analyses_total{path="model"} 1`,
		`secondthought_llm_request_duration_seconds_count{operation="complete",provider="anthropic"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
