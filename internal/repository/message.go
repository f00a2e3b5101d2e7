package repository

import (
	"context"
	"encoding/json"

	"livechat-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Insert appends a message row. Rows are never mutated afterwards.
func (r *MessageRepository) Insert(ctx context.Context, sessionID, senderType string, senderID *int, content, messageType string, metadata json.RawMessage) (*model.Message, error) {
	if messageType == "" {
		messageType = "text"
	}
	m := &model.Message{
		SessionID:   sessionID,
		SenderType:  senderType,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		Metadata:    metadata,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (session_id, sender_type, sender_id, content, message_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, sessionID, senderType, senderID, content, messageType, metadata).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListBySession returns the full history in insertion order. Support chats
// are short-lived, so no pagination.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, sender_type, sender_id, content, message_type, metadata, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderType, &m.SenderID, &m.Content, &m.MessageType, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE session_id = $1`, sessionID).Scan(&count)
	return count, err
}
