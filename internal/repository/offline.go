package repository

import (
	"context"

	"livechat-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OfflineMessageRepository struct {
	pool *pgxpool.Pool
}

func NewOfflineMessageRepository(pool *pgxpool.Pool) *OfflineMessageRepository {
	return &OfflineMessageRepository{pool: pool}
}

func (r *OfflineMessageRepository) Insert(ctx context.Context, req *model.OfflineMessageRequest) (*model.OfflineMessage, error) {
	m := &model.OfflineMessage{
		WebsiteID:     req.WebsiteID,
		CustomerEmail: req.CustomerEmail,
		Message:       req.Message,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO offline_messages (website_id, customer_name, customer_email, message)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING id, customer_name, handled, created_at
	`, req.WebsiteID, req.CustomerName, req.CustomerEmail, req.Message).Scan(
		&m.ID, &m.CustomerName, &m.Handled, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *OfflineMessageRepository) List(ctx context.Context, onlyUnhandled bool) ([]*model.OfflineMessage, error) {
	query := `
		SELECT id, website_id, customer_name, customer_email, message, handled, created_at
		FROM offline_messages`
	if onlyUnhandled {
		query += ` WHERE NOT handled`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.OfflineMessage
	for rows.Next() {
		m := &model.OfflineMessage{}
		if err := rows.Scan(&m.ID, &m.WebsiteID, &m.CustomerName, &m.CustomerEmail, &m.Message, &m.Handled, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *OfflineMessageRepository) MarkHandled(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `UPDATE offline_messages SET handled = TRUE WHERE id = $1`, id)
	return err
}
