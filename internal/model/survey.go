package model

import "time"

type Survey struct {
	ID            int       `json:"id"`
	SessionID     string    `json:"session_id"`
	CustomerName  *string   `json:"customer_name,omitempty"`
	CustomerEmail *string   `json:"customer_email,omitempty"`
	AgentID       *int      `json:"agent_id,omitempty"`
	AgentName     *string   `json:"agent_name,omitempty"`
	WebsiteID     *int      `json:"website_id,omitempty"`
	WebsiteName   *string   `json:"website_name,omitempty"`
	ProblemSolved bool      `json:"problem_solved"`
	Feedback      *string   `json:"feedback,omitempty"`
	Rating        *int      `json:"rating,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SubmitSurveyRequest struct {
	SessionID     string `json:"session_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ProblemSolved *bool  `json:"problem_solved"`
	Feedback      string `json:"feedback"`
	Rating        *int   `json:"rating"`
}

type SurveyFilter struct {
	AgentID       int
	ProblemSolved *bool
	Limit         int
	Offset        int
}

type SurveyStats struct {
	TotalSurveys          int     `json:"total_surveys"`
	ProblemSolvedCount    int     `json:"problem_solved_count"`
	ProblemNotSolvedCount int     `json:"problem_not_solved_count"`
	SatisfactionRate      float64 `json:"satisfaction_rate"`
	AverageRating         float64 `json:"average_rating"`
	HighRatingCount       int     `json:"high_rating_count"`
	LowRatingCount        int     `json:"low_rating_count"`
}
