package manipulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/secondthought/internal/llm"
)

type fakeCompleter struct {
	out      string
	err      error
	system   string
	messages []llm.Message
}

func (f *fakeCompleter) Complete(_ context.Context, system string, messages []llm.Message, _ int) (string, error) {
	f.system = system
	f.messages = messages
	return f.out, f.err
}

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAnalyzer(c llm.Completer) *Analyzer {
	return New(c, slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(func() time.Time { return fixed }))
}

func TestAnalyzeReply_Parsed(t *testing.T) {
	c := &fakeCompleter{out: "Manipulation Score (0-100): 72\nPatterns detected: flattery, false urgency\nExplanation: excessive praise noted."}
	a := newAnalyzer(c)

	recent := []llm.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "assistant", Content: "You must act now, genius."},
	}
	got := a.AnalyzeReply(context.Background(), "You must act now, genius.", recent)

	if got.ManipulationScore != 72 || !got.ScoreParsed {
		t.Errorf("expected parsed score 72, got %d (parsed=%v)", got.ManipulationScore, got.ScoreParsed)
	}
	if len(got.Patterns) != 2 || got.Patterns[1] != "false urgency" {
		t.Errorf("unexpected patterns %v", got.Patterns)
	}
	if got.Explanation != "excessive praise noted." {
		t.Errorf("unexpected explanation %q", got.Explanation)
	}
	if !got.Timestamp.Equal(fixed) {
		t.Errorf("expected fixed timestamp, got %v", got.Timestamp)
	}

	if c.system != systemPrompt {
		t.Errorf("unexpected system prompt %q", c.system)
	}
	prompt := c.messages[0].Content
	if !strings.Contains(prompt, `Message to analyze: "You must act now, genius."`) {
		t.Error("expected reply quoted in prompt")
	}
	if strings.Contains(prompt, "user: first") {
		t.Error("expected only the last three context messages")
	}
	if !strings.Contains(prompt, "assistant: second\nuser: third\nassistant: You must act now, genius.") {
		t.Errorf("expected last three messages as role: content, got\n%s", prompt)
	}
	if !strings.Contains(prompt, "6. Sycophantic behavior") {
		t.Error("expected tactic list in prompt")
	}
}

func TestAnalyzeReply_CompletionError(t *testing.T) {
	a := newAnalyzer(&fakeCompleter{err: errors.New("upstream 529")})

	got := a.AnalyzeReply(context.Background(), "reply", nil)

	if got.ManipulationScore != 0 || got.ScoreParsed {
		t.Errorf("expected unparsed zero score, got %+v", got)
	}
	if got.Patterns == nil || len(got.Patterns) != 0 {
		t.Errorf("expected empty patterns, got %#v", got.Patterns)
	}
	if got.Explanation != "Analysis failed: upstream 529" {
		t.Errorf("unexpected explanation %q", got.Explanation)
	}
}

func TestAnalyzeReply_NoCompleter(t *testing.T) {
	got := newAnalyzer(nil).AnalyzeReply(context.Background(), "reply", nil)
	if !strings.HasPrefix(got.Explanation, "Analysis failed: ") {
		t.Errorf("unexpected explanation %q", got.Explanation)
	}
}

func TestAnalyzeReply_UnlabelledOutput(t *testing.T) {
	got := newAnalyzer(&fakeCompleter{out: "  Looks fine to me.  "}).AnalyzeReply(context.Background(), "reply", nil)
	if got.ScoreParsed {
		t.Error("expected ScoreParsed false")
	}
	if got.Explanation != "Looks fine to me." {
		t.Errorf("unexpected explanation %q", got.Explanation)
	}
}
