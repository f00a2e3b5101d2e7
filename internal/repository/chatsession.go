package repository

import (
	"context"
	"errors"
	"fmt"

	"livechat-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatSessionRepository struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepository(pool *pgxpool.Pool) *ChatSessionRepository {
	return &ChatSessionRepository{pool: pool}
}

// Create inserts a new waiting session together with its opening system
// message. Returns ErrSessionExists when the external session id is taken.
func (r *ChatSessionRepository) Create(ctx context.Context, req *model.StartSessionRequest) (*model.ChatSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s := &model.ChatSession{}
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_sessions (website_id, session_id, customer_name, customer_email, customer_phone, topic, customer_ip, status)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING id, session_id, website_id, status, priority, started_at, last_activity
	`, req.WebsiteID, req.SessionID, req.CustomerName, req.CustomerEmail, req.CustomerPhone, req.Topic, req.CustomerIP, model.SessionWaiting).Scan(
		&s.ID, &s.SessionID, &s.WebsiteID, &s.Status, &s.Priority, &s.StartedAt, &s.LastActivity,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionExists
		}
		return nil, err
	}

	topic := req.Topic
	if topic == "" {
		topic = "General inquiry"
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO messages (session_id, sender_type, content)
		VALUES ($1, $2, $3)
	`, req.SessionID, model.SenderSystem, fmt.Sprintf("New chat session started. Topic: %s", topic))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ChatSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	s := &model.ChatSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT cs.id, cs.session_id, cs.website_id, cs.agent_id,
		       cs.customer_name, cs.customer_email, cs.customer_phone, cs.topic,
		       cs.status, cs.priority, cs.started_at, cs.last_activity, cs.ended_at,
		       COALESCE(w.name, ''), COALESCE(w.domain, ''), a.name
		FROM chat_sessions cs
		LEFT JOIN websites w ON cs.website_id = w.id
		LEFT JOIN agents a ON cs.agent_id = a.id
		WHERE cs.session_id = $1
	`, sessionID).Scan(
		&s.ID, &s.SessionID, &s.WebsiteID, &s.AgentID,
		&s.CustomerName, &s.CustomerEmail, &s.CustomerPhone, &s.Topic,
		&s.Status, &s.Priority, &s.StartedAt, &s.LastActivity, &s.EndedAt,
		&s.WebsiteName, &s.WebsiteDomain, &s.AgentName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ChatSessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	var id int
	err := r.pool.QueryRow(ctx, `SELECT id FROM chat_sessions WHERE session_id = $1`, sessionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ChatSessionRepository) List(ctx context.Context, filter model.SessionFilter) ([]*model.ChatSession, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 0

	if filter.Status != "" {
		argIdx++
		where += fmt.Sprintf(" AND cs.status = $%d", argIdx)
		args = append(args, filter.Status)
	}
	if filter.WebsiteID > 0 {
		argIdx++
		where += fmt.Sprintf(" AND cs.website_id = $%d", argIdx)
		args = append(args, filter.WebsiteID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT cs.id, cs.session_id, cs.website_id, cs.agent_id,
		       cs.customer_name, cs.customer_email, cs.customer_phone, cs.topic,
		       cs.status, cs.priority, cs.started_at, cs.last_activity, cs.ended_at,
		       COALESCE(w.name, ''), COALESCE(w.domain, ''), a.name
		FROM chat_sessions cs
		LEFT JOIN websites w ON cs.website_id = w.id
		LEFT JOIN agents a ON cs.agent_id = a.id
		%s
		ORDER BY cs.started_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx+1, argIdx+2), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.ChatSession
	for rows.Next() {
		s := &model.ChatSession{}
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.WebsiteID, &s.AgentID,
			&s.CustomerName, &s.CustomerEmail, &s.CustomerPhone, &s.Topic,
			&s.Status, &s.Priority, &s.StartedAt, &s.LastActivity, &s.EndedAt,
			&s.WebsiteName, &s.WebsiteDomain, &s.AgentName,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AssignmentStatus reports whether a session has an agent on it, for the
// widget's unauthenticated polling endpoint.
func (r *ChatSessionRepository) AssignmentStatus(ctx context.Context, sessionID string) (*model.AssignmentStatus, error) {
	st := &model.AssignmentStatus{}
	err := r.pool.QueryRow(ctx, `
		SELECT cs.status, cs.agent_id, a.name
		FROM chat_sessions cs
		LEFT JOIN agents a ON cs.agent_id = a.id
		WHERE cs.session_id = $1
	`, sessionID).Scan(&st.Status, &st.AgentID, &st.AgentName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	st.Assigned = st.Status == model.SessionActive && st.AgentID != nil
	return st, nil
}

// Assign performs the strict assignment as one transaction: the agent must
// exist and be online, must be under its live concurrent-chat count, and
// the status flip, the audit row and the system message land together.
// Returns the assigned agent's name.
func (r *ChatSessionRepository) Assign(ctx context.Context, sessionID string, agentID int) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var agentName string
	var maxChats, currentChats int
	err = tx.QueryRow(ctx, `
		SELECT a.name, a.max_concurrent_chats,
		       (SELECT COUNT(*) FROM chat_sessions WHERE agent_id = a.id AND status = 'active')
		FROM agents a
		WHERE a.id = $1 AND a.status = $2
	`, agentID, model.AgentOnline).Scan(&agentName, &maxChats, &currentChats)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrAgentUnavailable
	}
	if err != nil {
		return "", err
	}
	if currentChats >= maxChats {
		return "", ErrAgentBusy
	}

	tag, err := tx.Exec(ctx, `
		UPDATE chat_sessions SET agent_id = $1, status = $2, last_activity = NOW()
		WHERE session_id = $3
	`, agentID, model.SessionActive, sessionID)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", ErrSessionNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_assignments (session_id, agent_id, assignment_type)
		VALUES ($1, $2, $3)
	`, sessionID, agentID, model.AssignManual)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (session_id, sender_type, content)
		VALUES ($1, $2, $3)
	`, sessionID, model.SenderSystem, fmt.Sprintf("Chat assigned to agent: %s", agentName))
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return agentName, nil
}

// AssignBare is the non-strict variant: a single UPDATE with no capacity
// check, no audit row and no system message.
func (r *ChatSessionRepository) AssignBare(ctx context.Context, sessionID string, agentID int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions SET agent_id = $1, status = $2, last_activity = NOW()
		WHERE session_id = $3
	`, agentID, model.SessionActive, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Close marks the session closed. Closing an already-closed session is
// accepted. withSystemMessage pairs the closure system message with the
// status flip in one transaction.
func (r *ChatSessionRepository) Close(ctx context.Context, sessionID string, withSystemMessage bool) error {
	if !withSystemMessage {
		_, err := r.pool.Exec(ctx, `
			UPDATE chat_sessions SET status = $1, ended_at = NOW(), last_activity = NOW()
			WHERE session_id = $2
		`, model.SessionClosed, sessionID)
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE chat_sessions SET status = $1, ended_at = NOW(), last_activity = NOW()
		WHERE session_id = $2
	`, model.SessionClosed, sessionID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO messages (session_id, sender_type, content)
		VALUES ($1, $2, 'Chat session closed by agent')
	`, sessionID, model.SenderSystem); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes the session's messages and then the session row as one
// atomic unit.
func (r *ChatSessionRepository) Delete(ctx context.Context, sessionID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM chat_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit(ctx)
}

// WebsiteDomain resolves the origin domain for a session's website, used
// for the best-effort widget callbacks.
func (r *ChatSessionRepository) WebsiteDomain(ctx context.Context, sessionID string) (string, error) {
	var domain string
	err := r.pool.QueryRow(ctx, `
		SELECT w.domain FROM chat_sessions cs
		JOIN websites w ON cs.website_id = w.id
		WHERE cs.session_id = $1
	`, sessionID).Scan(&domain)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	return domain, err
}

func (r *ChatSessionRepository) TouchActivity(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE chat_sessions SET last_activity = NOW() WHERE session_id = $1`, sessionID)
	return err
}
