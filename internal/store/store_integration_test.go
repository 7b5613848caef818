//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/heuristic"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	if err := Migrate(dbURL); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_SaveAndGetAssessment(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ref := "integration-test-" + uuid.New().String()[:8]

	text := "Human: what should i do?\nAssistant: you are a genius, do whatever you feel."
	rec, err := s.SaveAssessment(ctx, AssessmentRecord{
		Source:     SourceEvent,
		SourceRef:  ref,
		Transcript: text,
		Result:     assessment.Result{Assessment: heuristic.Analyze(text), Path: assessment.PathHeuristic},
	})
	if err != nil {
		t.Fatalf("SaveAssessment failed: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("expected non-nil assessment ID")
	}

	got, err := s.GetAssessment(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetAssessment failed: %v", err)
	}
	if got.SourceRef != ref {
		t.Errorf("expected source_ref %q, got %q", ref, got.SourceRef)
	}
	if got.Result.Path != assessment.PathHeuristic {
		t.Errorf("expected heuristic path, got %q", got.Result.Path)
	}
	want := rec.Result.Assessment
	if got.Result.Assessment.TrustScore != want.TrustScore {
		t.Errorf("expected trust score %d, got %d", want.TrustScore, got.Result.Assessment.TrustScore)
	}
	if len(got.Result.Assessment.TemporalDynamics.LongTerm) != len(want.TemporalDynamics.LongTerm) {
		t.Errorf("expected temporal dynamics to round-trip, got %+v", got.Result.Assessment.TemporalDynamics)
	}

	if _, err := s.GetAssessment(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_ConversationFlow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "integration")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	idx, err := s.AppendMessage(ctx, conv.ID, transcript.Message{Role: "user", Content: "hello"})
	if err != nil || idx != 0 {
		t.Fatalf("AppendMessage user: idx=%d err=%v", idx, err)
	}
	idx, err = s.AppendMessage(ctx, conv.ID, transcript.Message{Role: "assistant", Content: "hi, brilliant one"})
	if err != nil || idx != 1 {
		t.Fatalf("AppendMessage assistant: idx=%d err=%v", idx, err)
	}
	if err := s.AppendAnalysis(ctx, conv.ID, manipulation.Analysis{
		MessageIndex:      1,
		ManipulationScore: 35,
		ScoreParsed:       true,
		Patterns:          []string{"flattery"},
		Explanation:       "unearned praise",
	}); err != nil {
		t.Fatalf("AppendAnalysis failed: %v", err)
	}

	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != "assistant" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if len(got.Analyses) != 1 || got.Analyses[0].MessageIndex != 1 || got.Analyses[0].Patterns[0] != "flattery" {
		t.Errorf("unexpected analyses %+v", got.Analyses)
	}

	missing := uuid.New()
	if _, err := s.AppendMessage(ctx, missing, transcript.Message{Role: "user", Content: "x"}); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
	if err := s.AppendAnalysis(ctx, missing, manipulation.Analysis{}); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}
