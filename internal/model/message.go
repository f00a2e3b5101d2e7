package model

import (
	"encoding/json"
	"time"
)

// Sender types. The widget historically sends both "user" and "customer"
// for the end customer; both are treated as customer messages.
const (
	SenderAgent    = "agent"
	SenderCustomer = "customer"
	SenderSystem   = "system"
	SenderUser     = "user"
)

func IsCustomerSender(senderType string) bool {
	return senderType == SenderCustomer || senderType == SenderUser
}

type Message struct {
	ID          int64           `json:"id"`
	SessionID   string          `json:"session_id"`
	SenderType  string          `json:"sender_type"`
	SenderID    *int            `json:"sender_id,omitempty"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WidgetMessageRequest is the unauthenticated widget payload.
type WidgetMessageRequest struct {
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	SenderType string `json:"sender_type"`
}

// AgentMessageRequest is the authenticated dashboard payload.
type AgentMessageRequest struct {
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata"`
}
