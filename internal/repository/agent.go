package repository

import (
	"context"
	"errors"

	"livechat-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository struct {
	pool *pgxpool.Pool
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// current_chats is always computed from active sessions; there is no
// stored counter to drift.
const agentColumns = `
	a.id, a.name, a.email, a.status, a.max_concurrent_chats, a.last_active, a.created_at,
	(SELECT COUNT(*) FROM chat_sessions WHERE agent_id = a.id AND status = 'active'),
	(SELECT COUNT(*) FROM chat_sessions WHERE agent_id = a.id)`

func scanAgent(row pgx.Row) (*model.Agent, error) {
	a := &model.Agent{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Status, &a.MaxConcurrentChats, &a.LastActive, &a.CreatedAt,
		&a.CurrentChats, &a.TotalSessions)
	if err != nil {
		return nil, err
	}
	a.ActiveSessions = a.CurrentChats
	return a, nil
}

func (r *AgentRepository) Create(ctx context.Context, name, email, passwordHash string, maxConcurrentChats int) (*model.Agent, error) {
	if maxConcurrentChats <= 0 {
		maxConcurrentChats = 5
	}
	a := &model.Agent{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, email, password_hash, max_concurrent_chats)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, status, max_concurrent_chats, created_at
	`, name, email, passwordHash, maxConcurrentChats).Scan(
		&a.ID, &a.Name, &a.Email, &a.Status, &a.MaxConcurrentChats, &a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return a, nil
}

func (r *AgentRepository) GetByID(ctx context.Context, id int) (*model.Agent, error) {
	a, err := scanAgent(r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	return a, err
}

func (r *AgentRepository) GetByEmail(ctx context.Context, email string) (*model.Agent, error) {
	a := &model.Agent{}
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.name, a.email, a.password_hash, a.status, a.max_concurrent_chats, a.last_active, a.created_at,
		       (SELECT COUNT(*) FROM chat_sessions WHERE agent_id = a.id AND status = 'active')
		FROM agents a WHERE a.email = $1
	`, email).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Status, &a.MaxConcurrentChats, &a.LastActive, &a.CreatedAt, &a.CurrentChats)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AgentRepository) List(ctx context.Context) ([]*model.Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents a ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *AgentRepository) Update(ctx context.Context, id int, req *model.UpdateAgentRequest) (*model.Agent, error) {
	// Reject an email already used by another agent before attempting the
	// write, mirroring the friendlier error over the raw constraint.
	if req.Email != "" {
		var otherID int
		err := r.pool.QueryRow(ctx, `SELECT id FROM agents WHERE email = $1 AND id != $2`, req.Email, id).Scan(&otherID)
		if err == nil {
			return nil, ErrEmailTaken
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	a := &model.Agent{}
	err := r.pool.QueryRow(ctx, `
		UPDATE agents SET name = $1, email = $2, max_concurrent_chats = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, name, email, status, max_concurrent_chats, created_at
	`, req.Name, req.Email, req.MaxConcurrentChats, req.Status, id).Scan(
		&a.ID, &a.Name, &a.Email, &a.Status, &a.MaxConcurrentChats, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AgentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// SetStatus flips online/offline and stamps last_active when coming online.
func (r *AgentRepository) SetStatus(ctx context.Context, id int, status string) error {
	var err error
	if status == model.AgentOnline {
		_, err = r.pool.Exec(ctx, `UPDATE agents SET status = $1, last_active = NOW() WHERE id = $2`, status, id)
	} else {
		_, err = r.pool.Exec(ctx, `UPDATE agents SET status = $1 WHERE id = $2`, status, id)
	}
	return err
}

func (r *AgentRepository) Stats(ctx context.Context, id, days int) (*model.AgentStats, []model.DailySessionCount, error) {
	stats := &model.AgentStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'closed'),
		       COUNT(*) FILTER (WHERE started_at >= NOW() - make_interval(days => $2)),
		       AVG(EXTRACT(EPOCH FROM (COALESCE(ended_at, NOW()) - started_at))/60)
		FROM chat_sessions
		WHERE agent_id = $1
	`, id, days).Scan(&stats.TotalSessions, &stats.ActiveSessions, &stats.ClosedSessions, &stats.RecentSessions, &stats.AvgDurationMinutes)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DATE(started_at), COUNT(*)
		FROM chat_sessions
		WHERE agent_id = $1 AND started_at >= NOW() - make_interval(days => $2)
		GROUP BY DATE(started_at)
		ORDER BY DATE(started_at) ASC
	`, id, days)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var daily []model.DailySessionCount
	for rows.Next() {
		var d model.DailySessionCount
		if err := rows.Scan(&d.Date, &d.Sessions); err != nil {
			return nil, nil, err
		}
		daily = append(daily, d)
	}
	return stats, daily, rows.Err()
}

// Delete refuses to remove an agent that still has active sessions.
func (r *AgentRepository) Delete(ctx context.Context, id int) (*model.Agent, error) {
	var active int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_sessions WHERE agent_id = $1 AND status = $2
	`, id, model.SessionActive).Scan(&active)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrAgentHasSessions
	}

	a := &model.Agent{}
	err = r.pool.QueryRow(ctx, `
		DELETE FROM agents WHERE id = $1 RETURNING id, name, email
	`, id).Scan(&a.ID, &a.Name, &a.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
