package model

import (
	"encoding/json"
	"strconv"
	"time"
)

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Server-emitted event names.
const (
	EventNewChatAvailable   = "new-chat-available"
	EventNewMessage         = "new-message"
	EventMessageReceived    = "message-received"
	EventNewCustomerMessage = "new-customer-message"
	EventChatStatusChanged  = "chat-status-changed"
	EventChatStatusUpdated  = "chat-status-updated"
	EventAgentAssigned      = "agent-assigned"
	EventAgentStatusChanged = "agent-status-changed"
	EventUserTyping         = "user-typing"
)

// Client-emitted event names.
const (
	EventAgentJoin   = "agent-join"
	EventJoinChat    = "join-chat"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
	EventPing        = "ping"
	EventPong        = "pong"
)

func ChatRoom(sessionID string) string { return "chat-" + sessionID }
func AgentRoom(agentID int) string     { return "agent-" + strconv.Itoa(agentID) }

type NewChatAvailable struct {
	SessionID     string    `json:"sessionId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Topic         string    `json:"topic"`
	WebsiteID     int       `json:"websiteId"`
	WebsiteName   string    `json:"websiteName"`
	WebsiteDomain string    `json:"websiteDomain"`
	Timestamp     time.Time `json:"timestamp"`
}

type NewMessageEvent struct {
	SessionID string   `json:"session_id"`
	Message   *Message `json:"message"`
}

type CustomerMessageEvent struct {
	SessionID string    `json:"sessionId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatStatusEvent struct {
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"`
	AgentID   *int      `json:"agentId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AgentAssignedEvent struct {
	SessionID string    `json:"sessionId"`
	AgentID   int       `json:"agentId"`
	AgentName string    `json:"agentName"`
	Timestamp time.Time `json:"timestamp"`
}

type AgentStatusEvent struct {
	AgentID   int       `json:"agentId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingEvent struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	IsTyping  bool   `json:"isTyping"`
}
