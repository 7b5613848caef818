// Package chat runs live chat sessions in which every assistant reply is
// scored for manipulation as it is produced.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondthought/internal/llm"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
	"github.com/MikeSquared-Agency/secondthought/internal/trust"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrReplyFailed          = errors.New("reply generation failed")
)

const replyMaxTokens = 1000

// Conversation is a stored chat session. Analyses are ordered by
// MessageIndex and never edited.
type Conversation struct {
	ID        uuid.UUID               `json:"id"`
	Title     string                  `json:"title"`
	Messages  []transcript.Message    `json:"messages"`
	Analyses  []manipulation.Analysis `json:"analysis"`
	CreatedAt time.Time               `json:"createdAt"`
}

// ConversationStore persists conversations. AppendMessage returns the index
// the message was stored at, which is the message count before the append.
type ConversationStore interface {
	CreateConversation(ctx context.Context, title string) (Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (Conversation, error)
	AppendMessage(ctx context.Context, id uuid.UUID, msg transcript.Message) (int, error)
	AppendAnalysis(ctx context.Context, id uuid.UUID, a manipulation.Analysis) error
}

// View is a conversation plus its running manipulation summary.
type View struct {
	Conversation
	Running trust.Summary `json:"running"`
}

// Turn is the result of one user message: the assistant reply and its analysis.
type Turn struct {
	Message  transcript.Message    `json:"message"`
	Analysis manipulation.Analysis `json:"analysis"`
}

type Service struct {
	store     ConversationStore
	completer llm.Completer
	replies   *manipulation.Analyzer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires a chat service. completer may be nil, in which case
// SendMessage returns llm.ErrNotConfigured.
func NewService(store ConversationStore, completer llm.Completer, replies *manipulation.Analyzer, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		completer: completer,
		replies:   replies,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	conv, err := s.store.CreateConversation(ctx, title)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) Conversation(ctx context.Context, id uuid.UUID) (View, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Conversation: conv, Running: Summarize(conv.Analyses)}, nil
}

// Summarize computes the running manipulation summary of analyses.
func Summarize(analyses []manipulation.Analysis) trust.Summary {
	scores := make([]int, 0, len(analyses))
	for _, a := range analyses {
		scores = append(scores, a.ManipulationScore)
	}
	return trust.Running(scores)
}

// SendMessage appends the user's message, generates the assistant reply
// from the full history, stores it and stores its manipulation analysis.
// Once the reply is stored the Turn is returned even if storing the
// analysis fails; that failure is only logged.
func (s *Service) SendMessage(ctx context.Context, id uuid.UUID, text string) (Turn, error) {
	if s.completer == nil {
		return Turn{}, llm.ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyMessage
	}

	if _, err := s.store.AppendMessage(ctx, id, transcript.Message{
		Role:      transcript.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}); err != nil {
		return Turn{}, fmt.Errorf("append user message: %w", err)
	}

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return Turn{}, fmt.Errorf("load conversation: %w", err)
	}
	history := toLLM(conv.Messages)

	reply, err := s.completer.Complete(ctx, "", history, replyMaxTokens)
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %w", ErrReplyFailed, err)
	}

	assistant := transcript.Message{
		Role:      transcript.RoleAssistant,
		Content:   reply,
		Timestamp: s.now(),
	}
	index, err := s.store.AppendMessage(ctx, id, assistant)
	if err != nil {
		return Turn{}, fmt.Errorf("append assistant message: %w", err)
	}

	analysis := s.replies.AnalyzeReply(ctx, reply, history)
	analysis.MessageIndex = index
	if err := s.store.AppendAnalysis(ctx, id, analysis); err != nil {
		s.logger.Error("failed to store reply analysis",
			"conversation_id", id,
			"message_index", index,
			"error", err,
		)
	}

	s.logger.Info("reply analyzed",
		"conversation_id", id,
		"message_index", index,
		"manipulation_score", analysis.ManipulationScore,
		"score_parsed", analysis.ScoreParsed,
	)
	return Turn{Message: assistant, Analysis: analysis}, nil
}

func toLLM(msgs []transcript.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
