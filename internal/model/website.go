package model

import "time"

// Website status values.
const (
	WebsiteActive   = "active"
	WebsiteInactive = "inactive"
)

type Website struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Domain          string    `json:"domain"`
	APIKey          string    `json:"api_key,omitempty"`
	Status          string    `json:"status"`
	ContactEmail    *string   `json:"contact_email,omitempty"`
	TotalSessions   int       `json:"total_sessions"`
	ActiveSessions  int       `json:"active_sessions"`
	WaitingSessions int       `json:"waiting_sessions,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type RegisterWebsiteRequest struct {
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	ContactEmail string `json:"contact_email"`
}

type UpdateWebsiteRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type WebsiteStats struct {
	TotalSessions      int      `json:"total_sessions"`
	ActiveSessions     int      `json:"active_sessions"`
	WaitingSessions    int      `json:"waiting_sessions"`
	ClosedSessions     int      `json:"closed_sessions"`
	RecentSessions     int      `json:"recent_sessions"`
	AvgDurationMinutes *float64 `json:"avg_session_duration_minutes"`
}
