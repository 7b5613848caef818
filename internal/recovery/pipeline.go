// Package recovery turns a shared conversation URL into transcript text:
// validate, allow-list, fetch, AI-extract, quality gate.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/secondthought/internal/llm"
	"github.com/MikeSquared-Agency/secondthought/internal/metrics"
	"github.com/MikeSquared-Agency/secondthought/internal/platform"
)

// Quality is the extractor's self-reported confidence.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityPoor      Quality = "poor"
	QualityFailed    Quality = "failed"
)

// ExtractionResult is the extractor's structured output.
type ExtractionResult struct {
	Conversation      string  `json:"conversation" jsonschema:"description=The conversation as clean text with speaker labels"`
	Success           bool    `json:"success"`
	Error             string  `json:"error" jsonschema:"description=Why extraction failed or an empty string"`
	ExtractionQuality Quality `json:"extractionQuality" jsonschema:"enum=excellent,enum=good,enum=poor,enum=failed"`
	DetectedPlatform  string  `json:"detectedPlatform" jsonschema:"description=Chat platform the page belongs to or an empty string"`
}

var extractionSchema = llm.GenerateSchema[ExtractionResult]()

const DefaultMaxHTMLChars = 50000

type Option func(*Pipeline)

func WithMaxHTMLChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxHTMLChars = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithProviderName(name string) Option {
	return func(p *Pipeline) { p.provider = name }
}

// Pipeline recovers transcripts from shared links. It holds no per-call
// state and is safe for concurrent use.
type Pipeline struct {
	gen          llm.Generator
	fetcher      Fetcher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxHTMLChars int
	provider     string
}

// New builds a pipeline. A nil gen makes every call fail with a
// configuration error; a nil fetcher uses NewHTTPFetcher(nil).
func New(gen llm.Generator, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Pipeline {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil)
	}
	p := &Pipeline{
		gen:          gen,
		fetcher:      fetcher,
		logger:       logger,
		maxHTMLChars: DefaultMaxHTMLChars,
		provider:     "unknown",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recovered is a gated transcript plus what the extractor reported.
type Recovered struct {
	Conversation string            `json:"conversation"`
	Quality      Quality           `json:"extractionQuality"`
	Platform     string            `json:"detectedPlatform,omitempty"`
	Host         platform.Platform `json:"platform"`
}

// Recover returns the transcript behind rawURL. Poor and good extractions
// come back prefixed with a banner; failures are *Error.
func (p *Pipeline) Recover(ctx context.Context, rawURL string) (string, error) {
	r, err := p.RecoverResult(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return r.Conversation, nil
}

func (p *Pipeline) RecoverResult(ctx context.Context, rawURL string) (Recovered, error) {
	r, err := p.recover(ctx, rawURL)
	if err != nil {
		p.metrics.Recovery("error")
		var rerr *Error
		if errors.As(err, &rerr) {
			p.logger.Warn("transcript recovery failed", "url", rawURL, "kind", rerr.Kind, "error", rerr.Detail)
		}
		return Recovered{}, err
	}
	p.metrics.Recovery(string(r.Quality))
	return r, nil
}

func (p *Pipeline) recover(ctx context.Context, rawURL string) (Recovered, error) {
	if p.gen == nil {
		return Recovered{}, &Error{Kind: KindConfiguration, Detail: msgNotConfigured, Err: llm.ErrNotConfigured}
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return Recovered{}, &Error{Kind: KindValidation, Detail: "Invalid URL: " + rawURL, Err: err}
	}

	host, ok := platform.Match(u.Hostname())
	if !ok {
		return Recovered{}, &Error{Kind: KindValidation, Detail: unsupportedDetail(u.Hostname())}
	}

	html, err := p.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return Recovered{}, fetchError(err)
	}

	result, err := p.extract(ctx, u.String(), html)
	if err != nil {
		return Recovered{}, &Error{
			Kind:   KindTransport,
			Detail: fmt.Sprintf("AI-powered extraction failed: %s\n\nThe AI was unable to parse the conversation content from this page. This could be due to:\n%s\n\n%s", err.Error(), extractionCauses, msgExtractionHint),
			Err:    err,
		}
	}

	text, err := gate(result)
	if err != nil {
		return Recovered{}, err
	}
	if result.ExtractionQuality == QualityPoor {
		p.logger.Warn("poor extraction quality", "url", u.String(), "extraction_quality", result.ExtractionQuality)
	}
	return Recovered{
		Conversation: text,
		Quality:      result.ExtractionQuality,
		Platform:     result.DetectedPlatform,
		Host:         host,
	}, nil
}

func unsupportedDetail(host string) string {
	return fmt.Sprintf("Unsupported platform: %s\n\nSupported platforms:\n%s\n\n%s",
		host, bullets(platform.Domains()...), msgPlatformHint)
}

func fetchError(err error) *Error {
	reason := err.Error()
	var se *StatusError
	if errors.As(err, &se) {
		reason = se.Error()
	}
	return &Error{
		Kind:   KindTransport,
		Detail: fmt.Sprintf("Failed to fetch URL (%s)\n\nThis could be due to:\n%s\n\n%s", reason, fetchCauses, msgFetchHint),
		Err:    err,
	}
}

func (p *Pipeline) extract(ctx context.Context, pageURL, html string) (ExtractionResult, error) {
	markup, truncated := truncate(html, p.maxHTMLChars)
	note := ""
	if truncated {
		note = truncationNote
	}

	start := time.Now()
	raw, err := p.gen.Generate(ctx, llm.Request{
		Name:        "ConversationExtraction",
		Description: "Conversation transcript extracted from a shared chat page",
		System:      extractionSystemPrompt,
		Prompt:      fmt.Sprintf(extractionPromptTemplate, pageURL, p.maxHTMLChars, markup, note),
		Schema:      extractionSchema,
		MaxTokens:   16000,
	})
	p.metrics.ObserveLLM(p.provider, "extract", time.Since(start))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("generate: %w", err)
	}

	var result ExtractionResult
	if err := llm.DecodeJSON(raw, &result); err != nil {
		return ExtractionResult{}, fmt.Errorf("decode extraction: %w", err)
	}
	return result, nil
}

// gate applies the quality rules to an extraction.
func gate(r ExtractionResult) (string, error) {
	if !r.Success || r.ExtractionQuality == QualityFailed {
		cause := r.Error
		if strings.TrimSpace(cause) == "" {
			cause = "Unable to identify conversation content"
		}
		return "", &Error{
			Kind:   KindQuality,
			Detail: fmt.Sprintf("AI extraction failed: %s\n\nThis could mean:\n%s\n\n%s", cause, qualityCauses, msgQualityHint),
		}
	}
	switch r.ExtractionQuality {
	case QualityPoor:
		return bannerPoor + r.Conversation, nil
	case QualityGood:
		return bannerGood + r.Conversation, nil
	case QualityExcellent:
		return r.Conversation, nil
	}
	return "", &Error{
		Kind:   KindQuality,
		Detail: fmt.Sprintf("AI extraction reported unknown quality %q\n\n%s", r.ExtractionQuality, msgQualityHint),
	}
}

// truncate cuts s to at most limit characters without splitting a rune.
func truncate(s string, limit int) (string, bool) {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
