package model

import "time"

// Chat session lifecycle: waiting -> active -> closed. Delete removes the
// row entirely and is reachable from any state.
const (
	SessionWaiting = "waiting"
	SessionActive  = "active"
	SessionClosed  = "closed"
)

// Assignment audit row types.
const (
	AssignManual = "manual"
	AssignAuto   = "auto"
)

type ChatSession struct {
	ID            int        `json:"id"`
	SessionID     string     `json:"session_id"`
	WebsiteID     int        `json:"website_id"`
	AgentID       *int       `json:"agent_id,omitempty"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	CustomerEmail *string    `json:"customer_email,omitempty"`
	CustomerPhone *string    `json:"customer_phone,omitempty"`
	Topic         *string    `json:"topic,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	StartedAt     time.Time  `json:"started_at"`
	LastActivity  time.Time  `json:"last_activity"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`

	// Joined display fields for the dashboard list.
	WebsiteName   string  `json:"website_name,omitempty"`
	WebsiteDomain string  `json:"website_domain,omitempty"`
	AgentName     *string `json:"agent_name,omitempty"`
}

type StartSessionRequest struct {
	WebsiteID     int    `json:"website_id"`
	SessionID     string `json:"session_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Topic         string `json:"topic"`
	CustomerIP    string `json:"customer_ip"`
}

type SessionFilter struct {
	Status    string
	WebsiteID int
	Limit     int
	Offset    int
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type AssignmentStatus struct {
	Assigned  bool    `json:"assigned"`
	AgentName *string `json:"agent_name"`
	Status    string  `json:"status"`
	AgentID   *int    `json:"agent_id"`
}
