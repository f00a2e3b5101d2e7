package repository

import (
	"context"
	"errors"
	"fmt"

	"livechat-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SurveyRepository struct {
	pool *pgxpool.Pool
}

func NewSurveyRepository(pool *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{pool: pool}
}

// Insert stores a post-chat survey, denormalizing agent and website names
// from the session so the survey outlives a deleted session.
func (r *SurveyRepository) Insert(ctx context.Context, req *model.SubmitSurveyRequest) (int, error) {
	var agentID, websiteID *int
	var agentName, websiteName *string
	err := r.pool.QueryRow(ctx, `
		SELECT cs.agent_id, a.name, cs.website_id, w.name
		FROM chat_sessions cs
		LEFT JOIN agents a ON cs.agent_id = a.id
		LEFT JOIN websites w ON cs.website_id = w.id
		WHERE cs.session_id = $1
	`, req.SessionID).Scan(&agentID, &agentName, &websiteID, &websiteName)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}

	var id int
	err = r.pool.QueryRow(ctx, `
		INSERT INTO chat_surveys (session_id, customer_name, customer_email, agent_id, agent_name,
		                          website_id, website_name, problem_solved, feedback, rating)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		RETURNING id
	`, req.SessionID, req.CustomerName, req.CustomerEmail, agentID, agentName,
		websiteID, websiteName, *req.ProblemSolved, req.Feedback, req.Rating).Scan(&id)
	return id, err
}

func (r *SurveyRepository) List(ctx context.Context, filter model.SurveyFilter) ([]*model.Survey, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 0

	if filter.ProblemSolved != nil {
		argIdx++
		where += fmt.Sprintf(" AND problem_solved = $%d", argIdx)
		args = append(args, *filter.ProblemSolved)
	}
	if filter.AgentID > 0 {
		argIdx++
		where += fmt.Sprintf(" AND agent_id = $%d", argIdx)
		args = append(args, filter.AgentID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_surveys `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, session_id, customer_name, customer_email, agent_id, agent_name,
		       website_id, website_name, problem_solved, feedback, rating, created_at
		FROM chat_surveys
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx+1, argIdx+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var surveys []*model.Survey
	for rows.Next() {
		s := &model.Survey{}
		if err := rows.Scan(&s.ID, &s.SessionID, &s.CustomerName, &s.CustomerEmail, &s.AgentID, &s.AgentName,
			&s.WebsiteID, &s.WebsiteName, &s.ProblemSolved, &s.Feedback, &s.Rating, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		surveys = append(surveys, s)
	}
	return surveys, total, rows.Err()
}

func (r *SurveyRepository) GetByID(ctx context.Context, id int) (*model.Survey, error) {
	s := &model.Survey{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, customer_name, customer_email, agent_id, agent_name,
		       website_id, website_name, problem_solved, feedback, rating, created_at
		FROM chat_surveys
		WHERE id = $1
	`, id).Scan(&s.ID, &s.SessionID, &s.CustomerName, &s.CustomerEmail, &s.AgentID, &s.AgentName,
		&s.WebsiteID, &s.WebsiteName, &s.ProblemSolved, &s.Feedback, &s.Rating, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SurveyRepository) Stats(ctx context.Context, agentID, websiteID int) (*model.SurveyStats, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 0
	if agentID > 0 {
		argIdx++
		where += fmt.Sprintf(" AND agent_id = $%d", argIdx)
		args = append(args, agentID)
	}
	if websiteID > 0 {
		argIdx++
		where += fmt.Sprintf(" AND website_id = $%d", argIdx)
		args = append(args, websiteID)
	}

	stats := &model.SurveyStats{}
	var avgRating *float64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE problem_solved),
		       COUNT(*) FILTER (WHERE NOT problem_solved),
		       AVG(rating),
		       COUNT(*) FILTER (WHERE rating >= 4),
		       COUNT(*) FILTER (WHERE rating <= 2)
		FROM chat_surveys `+where, args...).Scan(
		&stats.TotalSurveys, &stats.ProblemSolvedCount, &stats.ProblemNotSolvedCount,
		&avgRating, &stats.HighRatingCount, &stats.LowRatingCount,
	)
	if err != nil {
		return nil, err
	}
	if avgRating != nil {
		stats.AverageRating = *avgRating
	}
	if stats.TotalSurveys > 0 {
		stats.SatisfactionRate = float64(stats.ProblemSolvedCount) / float64(stats.TotalSurveys) * 100
	}
	return stats, nil
}
