package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

func (s *Store) CreateConversation(ctx context.Context, title string) (chat.Conversation, error) {
	conv := chat.Conversation{
		ID:       uuid.New(),
		Title:    title,
		Messages: []transcript.Message{},
		Analyses: []manipulation.Analysis{},
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, title) VALUES ($1, $2) RETURNING created_at`,
		conv.ID, conv.Title,
	).Scan(&conv.CreatedAt)
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	conv := chat.Conversation{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT title, created_at FROM conversations WHERE id = $1`, id,
	).Scan(&conv.Title, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Conversation{}, chat.ErrConversationNotFound
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}

	if conv.Messages, err = s.ListMessages(ctx, id); err != nil {
		return chat.Conversation{}, err
	}
	if conv.Analyses, err = s.ListAnalyses(ctx, id); err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

// AppendMessage stores msg at the next index. The conversation row is locked
// for the duration so concurrent appends get distinct, ordered indices.
func (s *Store) AppendMessage(ctx context.Context, id uuid.UUID, msg transcript.Message) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, chat.ErrConversationNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock conversation: %w", err)
	}

	var index int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM conversation_messages WHERE conversation_id = $1`, id,
	).Scan(&index); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO conversation_messages (conversation_id, message_index, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, index, msg.Role, msg.Content, ts,
	); err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return index, nil
}

func (s *Store) AppendAnalysis(ctx context.Context, id uuid.UUID, a manipulation.Analysis) error {
	patterns := a.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	ts := a.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO manipulation_analyses (conversation_id, message_index, manipulation_score, score_parsed, patterns, explanation, created_at)
		SELECT $1::uuid, $2::int, $3::int, $4::boolean, $5::text[], $6::text, $7::timestamptz
		WHERE EXISTS (SELECT 1 FROM conversations WHERE id = $1)`,
		id, a.MessageIndex, a.ManipulationScore, a.ScoreParsed, patterns, a.Explanation, ts,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

// ListMessages returns a conversation's messages in index order.
func (s *Store) ListMessages(ctx context.Context, id uuid.UUID) ([]transcript.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY message_index`, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []transcript.Message{}
	for rows.Next() {
		var m transcript.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListAnalyses returns a conversation's analyses ordered by message index,
// then insertion order.
func (s *Store) ListAnalyses(ctx context.Context, id uuid.UUID) ([]manipulation.Analysis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT message_index, manipulation_score, score_parsed, patterns, explanation, created_at
		FROM manipulation_analyses
		WHERE conversation_id = $1
		ORDER BY message_index, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []manipulation.Analysis{}
	for rows.Next() {
		var a manipulation.Analysis
		if err := rows.Scan(&a.MessageIndex, &a.ManipulationScore, &a.ScoreParsed, &a.Patterns, &a.Explanation, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
