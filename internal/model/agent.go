package model

import "time"

// Agent status values.
const (
	AgentOnline  = "online"
	AgentOffline = "offline"
)

type Agent struct {
	ID                 int        `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Status             string     `json:"status"`
	MaxConcurrentChats int        `json:"max_concurrent_chats"`
	// CurrentChats is computed from active sessions, never stored.
	CurrentChats   int        `json:"current_chats"`
	TotalSessions  int        `json:"total_sessions,omitempty"`
	ActiveSessions int        `json:"active_sessions,omitempty"`
	LastActive     *time.Time `json:"last_active,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type CreateAgentRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	MaxConcurrentChats int    `json:"max_concurrent_chats"`
}

type UpdateAgentRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	MaxConcurrentChats int    `json:"max_concurrent_chats"`
	Status             string `json:"status"`
}

type AgentStats struct {
	TotalSessions      int      `json:"total_sessions"`
	ActiveSessions     int      `json:"active_sessions"`
	ClosedSessions     int      `json:"closed_sessions"`
	RecentSessions     int      `json:"recent_sessions"`
	AvgDurationMinutes *float64 `json:"avg_session_duration_minutes"`
}

type DailySessionCount struct {
	Date     time.Time `json:"date"`
	Sessions int       `json:"sessions"`
}
