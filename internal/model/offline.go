package model

import "time"

// OfflineMessage is left by a visitor when no agent is available.
type OfflineMessage struct {
	ID            int       `json:"id"`
	WebsiteID     int       `json:"website_id"`
	CustomerName  *string   `json:"customer_name,omitempty"`
	CustomerEmail string    `json:"customer_email"`
	Message       string    `json:"message"`
	Handled       bool      `json:"handled"`
	CreatedAt     time.Time `json:"created_at"`
}

type OfflineMessageRequest struct {
	WebsiteID     int    `json:"website_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Message       string `json:"message"`
}
