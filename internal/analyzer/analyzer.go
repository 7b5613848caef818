// Package analyzer runs model-backed risk analysis with a heuristic fallback.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/heuristic"
	"github.com/MikeSquared-Agency/secondthought/internal/llm"
	"github.com/MikeSquared-Agency/secondthought/internal/metrics"
)

// Analyzer produces a risk assessment for a transcript. Implementations
// never fail; degraded input or unavailable models still yield a result.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) assessment.Result
}

var riskSchema = llm.GenerateSchema[assessment.Wire]()

const maxOutputTokens = 4096

type Option func(*ModelAnalyzer)

// WithMetrics records analysis paths and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *ModelAnalyzer) { a.metrics = m }
}

// WithProviderName labels model latency metrics.
func WithProviderName(name string) Option {
	return func(a *ModelAnalyzer) { a.provider = name }
}

// ModelAnalyzer asks a structured generator for an assessment and falls
// back to heuristic analysis when the call or its validation fails. With a
// nil generator every call takes the heuristic path.
type ModelAnalyzer struct {
	gen      llm.Generator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	provider string
}

// New returns the analyzer for the configured generator. Pass a nil gen
// when no model is configured.
func New(gen llm.Generator, logger *slog.Logger, opts ...Option) *ModelAnalyzer {
	a := &ModelAnalyzer{gen: gen, logger: logger, provider: "unknown"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mode reports which path is attempted first.
func (a *ModelAnalyzer) Mode() assessment.Path {
	if a.gen == nil {
		return assessment.PathHeuristic
	}
	return assessment.PathModel
}

func (a *ModelAnalyzer) Analyze(ctx context.Context, transcript string) assessment.Result {
	if a.gen == nil {
		return a.heuristic(ctx, transcript)
	}

	start := time.Now()
	raw, err := a.gen.Generate(ctx, llm.Request{
		Name:        "RiskAssessment",
		Description: "Six-dimension psychological safety assessment of a human/AI conversation",
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(userPromptTemplate, transcript),
		Schema:      riskSchema,
		MaxTokens:   maxOutputTokens,
	})
	a.metrics.ObserveLLM(a.provider, "generate", time.Since(start))
	if err != nil {
		a.logger.Warn("model analysis failed, using heuristic analysis",
			"error", err, "transcript_len", len(transcript))
		a.metrics.ModelFallback("transport")
		return a.heuristic(ctx, transcript)
	}

	ra, err := assessment.Decode(raw)
	if err != nil {
		a.logger.Warn("model analysis rejected, using heuristic analysis",
			"error", err, "transcript_len", len(transcript))
		a.metrics.ModelFallback("validation")
		return a.heuristic(ctx, transcript)
	}

	a.logger.Debug("model analysis complete",
		"transcript_len", len(transcript), "trust_score", ra.TrustScore)
	a.metrics.RiskAnalysis(string(assessment.PathModel))
	return assessment.Result{Assessment: ra, Path: assessment.PathModel}
}

func (a *ModelAnalyzer) heuristic(ctx context.Context, transcript string) assessment.Result {
	res := heuristic.Analyzer{}.Analyze(ctx, transcript)
	a.metrics.RiskAnalysis(string(res.Path))
	return res
}
