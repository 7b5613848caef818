package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/secondthought/internal/analyzer"
	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/hermes"
	"github.com/MikeSquared-Agency/secondthought/internal/recovery"
	"github.com/MikeSquared-Agency/secondthought/internal/slack"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

// TranscriptEvent is the payload of secondthought.transcript.submitted.
// Exactly one of Transcript, Messages or URL is expected; they are tried
// in that order.
type TranscriptEvent struct {
	SourceRef  string               `json:"source_ref"`
	Transcript string               `json:"transcript,omitempty"`
	Messages   []transcript.Message `json:"messages,omitempty"`
	URL        string               `json:"url,omitempty"`
}

// AnalysisEvent is published on secondthought.analysis.completed.
type AnalysisEvent struct {
	SourceRef    string                    `json:"source_ref"`
	AssessmentID string                    `json:"assessment_id,omitempty"`
	Path         assessment.Path           `json:"path"`
	Assessment   assessment.RiskAssessment `json:"assessment"`
	Alerted      bool                      `json:"alerted"`
}

// FailureEvent is published on secondthought.analysis.failed.
type FailureEvent struct {
	SourceRef string `json:"source_ref"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

type Publisher interface {
	Publish(subject string, data any) error
}

type Recoverer interface {
	Recover(ctx context.Context, url string) (string, error)
}

type AssessmentStore interface {
	SaveAssessment(ctx context.Context, rec store.AssessmentRecord) (store.AssessmentRecord, error)
}

type Alerter interface {
	PostRiskAlert(ctx context.Context, sourceRef string, res assessment.Result) (string, error)
}

// Processor turns submitted transcripts into published assessments.
type Processor struct {
	analyzer   analyzer.Analyzer
	recoverer  Recoverer
	store      AssessmentStore
	publisher  Publisher
	alerter    Alerter
	alertBelow int
	logger     *slog.Logger
}

type Option func(*Processor)

// WithStore persists every assessment.
func WithStore(s AssessmentStore) Option {
	return func(p *Processor) { p.store = s }
}

// WithAlerter posts an alert whenever trustScore falls below threshold.
func WithAlerter(a Alerter, threshold int) Option {
	return func(p *Processor) {
		p.alerter = a
		p.alertBelow = threshold
	}
}

func New(a analyzer.Analyzer, r Recoverer, pub Publisher, logger *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		analyzer:  a,
		recoverer: r,
		publisher: pub,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleTranscriptSubmitted is the NATS handler for secondthought.transcript.submitted.
func (p *Processor) HandleTranscriptSubmitted(subject string, data []byte) {
	var evt TranscriptEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "subject", subject, "error", err)
		return
	}
	if _, err := p.Process(context.Background(), evt); err != nil {
		p.logger.Error("transcript processing failed", "source_ref", evt.SourceRef, "error", err)
	}
}

// Process analyzes one event and publishes the outcome. Failures to obtain
// a transcript are published on the failed subject and returned.
func (p *Processor) Process(ctx context.Context, evt TranscriptEvent) (AnalysisEvent, error) {
	text, source, err := p.transcriptOf(ctx, evt)
	if err != nil {
		p.publishFailure(evt.SourceRef, err)
		return AnalysisEvent{}, err
	}

	p.logger.Info("processing transcript",
		"source_ref", evt.SourceRef,
		"source", source,
		"transcript_len", len(text),
	)

	res := p.analyzer.Analyze(ctx, text)
	out := AnalysisEvent{
		SourceRef:  evt.SourceRef,
		Path:       res.Path,
		Assessment: res.Assessment,
	}

	if p.store != nil {
		rec, err := p.store.SaveAssessment(ctx, store.AssessmentRecord{
			Source:     source,
			SourceRef:  evt.SourceRef,
			Transcript: text,
			Result:     res,
		})
		if err != nil {
			p.logger.Error("persistence failed", "source_ref", evt.SourceRef, "error", err)
		} else {
			out.AssessmentID = rec.ID.String()
		}
	}

	if p.alerter != nil && res.Assessment.TrustScore < p.alertBelow {
		if _, err := p.alerter.PostRiskAlert(ctx, evt.SourceRef, res); err != nil {
			p.logger.Error("slack alert failed", "source_ref", evt.SourceRef, "error", err)
		} else {
			out.Alerted = true
		}
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(hermes.SubjectAnalysisCompleted, out); err != nil {
			p.logger.Error("failed to publish analysis", "source_ref", evt.SourceRef, "error", err)
		}
	}

	p.logger.Info("transcript analyzed",
		"source_ref", evt.SourceRef,
		"analysis_path", res.Path,
		"trust_score", res.Assessment.TrustScore,
		"alerted", out.Alerted,
	)
	return out, nil
}

var errEmptyEvent = errors.New("event carries no transcript, messages or url")

func (p *Processor) transcriptOf(ctx context.Context, evt TranscriptEvent) (string, string, error) {
	if strings.TrimSpace(evt.Transcript) != "" {
		return evt.Transcript, store.SourceEvent, nil
	}
	if text := transcript.Format(evt.Messages); text != "" {
		return text, store.SourceEvent, nil
	}
	if evt.URL != "" {
		if p.recoverer == nil {
			return "", "", fmt.Errorf("recover %s: transcript recovery unavailable", evt.URL)
		}
		text, err := p.recoverer.Recover(ctx, evt.URL)
		if err != nil {
			return "", "", err
		}
		return text, store.SourceURL, nil
	}
	return "", "", errEmptyEvent
}

func (p *Processor) publishFailure(sourceRef string, err error) {
	if p.publisher == nil {
		return
	}
	kind := "validation"
	var rerr *recovery.Error
	if errors.As(err, &rerr) {
		kind = string(rerr.Kind)
	}
	if pubErr := p.publisher.Publish(hermes.SubjectAnalysisFailed, FailureEvent{
		SourceRef: sourceRef,
		Kind:      kind,
		Error:     err.Error(),
	}); pubErr != nil {
		p.logger.Error("failed to publish failure", "source_ref", sourceRef, "error", pubErr)
	}
}

var (
	_ Recoverer       = (*recovery.Pipeline)(nil)
	_ AssessmentStore = (*store.Store)(nil)
	_ AssessmentStore = (*store.MemoryStore)(nil)
	_ Publisher       = (*hermes.Client)(nil)
	_ Alerter         = (*slack.Poster)(nil)
)
