package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

// MemoryStore keeps everything in process. It is used when no database is
// configured. Returned values never alias internal state.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*chat.Conversation
	assessments   map[uuid.UUID]AssessmentRecord
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID]*chat.Conversation),
		assessments:   make(map[uuid.UUID]AssessmentRecord),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) SaveAssessment(_ context.Context, rec AssessmentRecord) (AssessmentRecord, error) {
	if err := rec.Result.Assessment.Validate(); err != nil {
		return AssessmentRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = uuid.New()
	rec.CreatedAt = m.now()
	m.assessments[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) GetAssessment(_ context.Context, id uuid.UUID) (AssessmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.assessments[id]
	if !ok {
		return AssessmentRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) CreateConversation(_ context.Context, title string) (chat.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv := &chat.Conversation{
		ID:        uuid.New(),
		Title:     title,
		Messages:  []transcript.Message{},
		Analyses:  []manipulation.Analysis{},
		CreatedAt: m.now(),
	}
	m.conversations[conv.ID] = conv
	return cloneConversation(conv), nil
}

func (m *MemoryStore) GetConversation(_ context.Context, id uuid.UUID) (chat.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return chat.Conversation{}, chat.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, id uuid.UUID, msg transcript.Message) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return 0, chat.ErrConversationNotFound
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	index := len(conv.Messages)
	conv.Messages = append(conv.Messages, msg)
	return index, nil
}

func (m *MemoryStore) AppendAnalysis(_ context.Context, id uuid.UUID, a manipulation.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return chat.ErrConversationNotFound
	}
	a.Patterns = append([]string{}, a.Patterns...)

	// Keep analyses ordered by message index; equal indices keep arrival order.
	i := len(conv.Analyses)
	for i > 0 && conv.Analyses[i-1].MessageIndex > a.MessageIndex {
		i--
	}
	conv.Analyses = append(conv.Analyses, manipulation.Analysis{})
	copy(conv.Analyses[i+1:], conv.Analyses[i:])
	conv.Analyses[i] = a
	return nil
}

func cloneConversation(c *chat.Conversation) chat.Conversation {
	out := *c
	out.Messages = append([]transcript.Message{}, c.Messages...)
	out.Analyses = make([]manipulation.Analysis, len(c.Analyses))
	for i, a := range c.Analyses {
		a.Patterns = append([]string{}, a.Patterns...)
		out.Analyses[i] = a
	}
	return out
}
