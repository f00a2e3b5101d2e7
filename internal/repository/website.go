package repository

import (
	"context"
	"errors"

	"livechat-backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WebsiteRepository struct {
	pool *pgxpool.Pool
}

func NewWebsiteRepository(pool *pgxpool.Pool) *WebsiteRepository {
	return &WebsiteRepository{pool: pool}
}

// Register creates a website with a fresh API key. The domain is unique;
// a duplicate returns ErrDomainTaken.
func (r *WebsiteRepository) Register(ctx context.Context, req *model.RegisterWebsiteRequest) (*model.Website, error) {
	w := &model.Website{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO websites (name, domain, api_key, contact_email)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, name, domain, api_key, status, created_at
	`, req.Name, req.Domain, uuid.NewString(), req.ContactEmail).Scan(
		&w.ID, &w.Name, &w.Domain, &w.APIKey, &w.Status, &w.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDomainTaken
		}
		return nil, err
	}
	return w, nil
}

// GetActive is the lifecycle manager's lookup: the website must exist and
// be accepting chats.
func (r *WebsiteRepository) GetActive(ctx context.Context, id int) (*model.Website, error) {
	w := &model.Website{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, domain, status, created_at FROM websites
		WHERE id = $1 AND status = $2
	`, id, model.WebsiteActive).Scan(&w.ID, &w.Name, &w.Domain, &w.Status, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebsiteUnavailable
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WebsiteRepository) List(ctx context.Context) ([]*model.Website, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.domain, w.status, w.contact_email, w.created_at,
		       (SELECT COUNT(*) FROM chat_sessions WHERE website_id = w.id),
		       (SELECT COUNT(*) FROM chat_sessions WHERE website_id = w.id AND status = 'active')
		FROM websites w
		ORDER BY w.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var websites []*model.Website
	for rows.Next() {
		w := &model.Website{}
		if err := rows.Scan(&w.ID, &w.Name, &w.Domain, &w.Status, &w.ContactEmail, &w.CreatedAt,
			&w.TotalSessions, &w.ActiveSessions); err != nil {
			return nil, err
		}
		websites = append(websites, w)
	}
	return websites, rows.Err()
}

func (r *WebsiteRepository) GetByID(ctx context.Context, id int) (*model.Website, error) {
	w := &model.Website{}
	err := r.pool.QueryRow(ctx, `
		SELECT w.id, w.name, w.domain, w.status, w.contact_email, w.created_at,
		       (SELECT COUNT(*) FROM chat_sessions WHERE website_id = w.id),
		       (SELECT COUNT(*) FROM chat_sessions WHERE website_id = w.id AND status = 'active'),
		       (SELECT COUNT(*) FROM chat_sessions WHERE website_id = w.id AND status = 'waiting')
		FROM websites w
		WHERE w.id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Domain, &w.Status, &w.ContactEmail, &w.CreatedAt,
		&w.TotalSessions, &w.ActiveSessions, &w.WaitingSessions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebsiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WebsiteRepository) Update(ctx context.Context, id int, req *model.UpdateWebsiteRequest) (*model.Website, error) {
	w := &model.Website{}
	err := r.pool.QueryRow(ctx, `
		UPDATE websites SET name = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, domain, status
	`, req.Name, req.Status, id).Scan(&w.ID, &w.Name, &w.Domain, &w.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebsiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WebsiteRepository) RegenerateKey(ctx context.Context, id int) (*model.Website, error) {
	w := &model.Website{}
	err := r.pool.QueryRow(ctx, `
		UPDATE websites SET api_key = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, domain, api_key
	`, uuid.NewString(), id).Scan(&w.ID, &w.Name, &w.Domain, &w.APIKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebsiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WebsiteRepository) Stats(ctx context.Context, id, days int) (*model.WebsiteStats, []model.DailySessionCount, error) {
	stats := &model.WebsiteStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'waiting'),
		       COUNT(*) FILTER (WHERE status = 'closed'),
		       COUNT(*) FILTER (WHERE started_at >= NOW() - make_interval(days => $2)),
		       AVG(EXTRACT(EPOCH FROM (COALESCE(ended_at, NOW()) - started_at))/60)
		FROM chat_sessions
		WHERE website_id = $1
	`, id, days).Scan(&stats.TotalSessions, &stats.ActiveSessions, &stats.WaitingSessions,
		&stats.ClosedSessions, &stats.RecentSessions, &stats.AvgDurationMinutes)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DATE(started_at), COUNT(*)
		FROM chat_sessions
		WHERE website_id = $1 AND started_at >= NOW() - make_interval(days => $2)
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

// Delete refuses to remove a website that still has active or waiting
// sessions.
func (r *WebsiteRepository) Delete(ctx context.Context, id int) (*model.Website, error) {
	var busy int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_sessions WHERE website_id = $1 AND status IN ($2, $3)
	`, id, model.SessionActive, model.SessionWaiting).Scan(&busy)
	if err != nil {
		return nil, err
	}
	if busy > 0 {
		return nil, ErrWebsiteInUse
	}

	w := &model.Website{}
	err = r.pool.QueryRow(ctx, `
		DELETE FROM websites WHERE id = $1 RETURNING id, name, domain
	`, id).Scan(&w.ID, &w.Name, &w.Domain)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebsiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}
