package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/heuristic"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

func TestMemoryStore_Assessments(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.SaveAssessment(ctx, AssessmentRecord{
		Source:     SourceText,
		Transcript: "hello",
		Result:     assessment.Result{Assessment: heuristic.Analyze("hello"), Path: assessment.PathHeuristic},
	})
	if err != nil {
		t.Fatalf("SaveAssessment failed: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("expected non-nil ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.GetAssessment(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetAssessment failed: %v", err)
	}
	if got.Result.Assessment.TrustScore != rec.Result.Assessment.TrustScore {
		t.Errorf("expected trustScore %d, got %d", rec.Result.Assessment.TrustScore, got.Result.Assessment.TrustScore)
	}

	if _, err := s.GetAssessment(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.SaveAssessment(ctx, AssessmentRecord{}); !errors.Is(err, assessment.ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty assessment, got %v", err)
	}
}

func TestMemoryStore_AppendIndices(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "test")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	for i, role := range []string{"user", "assistant", "user"} {
		idx, err := s.AppendMessage(ctx, conv.ID, transcript.Message{Role: role, Content: "m"})
		if err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		if idx != i {
			t.Errorf("expected index %d, got %d", i, idx)
		}
	}

	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be filled")
	}
}

func TestMemoryStore_AnalysesOrdered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv, _ := s.CreateConversation(ctx, "test")

	for _, idx := range []int{1, 5, 3, 5} {
		if err := s.AppendAnalysis(ctx, conv.ID, manipulation.Analysis{MessageIndex: idx, ManipulationScore: idx * 10}); err != nil {
			t.Fatalf("AppendAnalysis failed: %v", err)
		}
	}

	got, _ := s.GetConversation(ctx, conv.ID)
	want := []int{1, 3, 5, 5}
	for i, a := range got.Analyses {
		if a.MessageIndex != want[i] {
			t.Errorf("analysis %d: expected index %d, got %d", i, want[i], a.MessageIndex)
		}
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	if _, err := s.GetConversation(ctx, id); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("GetConversation: expected ErrConversationNotFound, got %v", err)
	}
	if _, err := s.AppendMessage(ctx, id, transcript.Message{Role: "user", Content: "x"}); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("AppendMessage: expected ErrConversationNotFound, got %v", err)
	}
	if err := s.AppendAnalysis(ctx, id, manipulation.Analysis{}); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Errorf("AppendAnalysis: expected ErrConversationNotFound, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv, _ := s.CreateConversation(ctx, "test")
	s.AppendMessage(ctx, conv.ID, transcript.Message{Role: "user", Content: "original"})

	got, _ := s.GetConversation(ctx, conv.ID)
	got.Messages[0].Content = "mutated"

	again, _ := s.GetConversation(ctx, conv.ID)
	if again.Messages[0].Content != "original" {
		t.Error("expected stored message to be unaffected by caller mutation")
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv, _ := s.CreateConversation(ctx, "test")

	const n = 50
	seen := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := s.AppendMessage(ctx, conv.ID, transcript.Message{Role: "user", Content: "x"})
			if err != nil {
				t.Errorf("AppendMessage failed: %v", err)
				return
			}
			seen <- idx
		}()
	}
	wg.Wait()
	close(seen)

	indices := make(map[int]bool)
	for idx := range seen {
		if indices[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		indices[idx] = true
	}
	if len(indices) != n {
		t.Errorf("expected %d distinct indices, got %d", n, len(indices))
	}
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/st", "pgx5://u:p@localhost:5432/st"},
		{"postgresql://localhost/st?sslmode=disable", "pgx5://localhost/st?sslmode=disable"},
		{"pgx5://already", "pgx5://already"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
