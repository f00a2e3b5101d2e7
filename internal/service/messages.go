package service

import (
	"context"
	"encoding/json"

	"livechat-backend/internal/model"
)

type MessageStore interface {
	Insert(ctx context.Context, sessionID, senderType string, senderID *int, content, messageType string, metadata json.RawMessage) (*model.Message, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Message, error)
}

// SessionActivityStore is the session-side slice the router needs: an
// existence check and the last_activity bump.
type SessionActivityStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*model.ChatSession, error)
	TouchActivity(ctx context.Context, sessionID string) error
}

// MessageRouter accepts a chat turn from the widget or an agent, persists
// it and fans it out.
type MessageRouter struct {
	messages MessageStore
	sessions SessionActivityStore
	pub      Publisher
}

func NewMessageRouter(messages MessageStore, sessions SessionActivityStore, pub Publisher) *MessageRouter {
	return &MessageRouter{messages: messages, sessions: sessions, pub: pub}
}

// Post persists one message and publishes it. senderID may be nil; the
// widget path then inherits the session's assigned agent, matching the
// historical row shape.
func (r *MessageRouter) Post(ctx context.Context, sessionID, content, senderType string, senderID *int, messageType string, metadata json.RawMessage) (*model.Message, error) {
	session, err := r.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if senderType == "" {
		senderType = model.SenderAgent
	}
	if senderID == nil {
		senderID = session.AgentID
	}

	msg, err := r.messages.Insert(ctx, sessionID, senderType, senderID, content, messageType, metadata)
	if err != nil {
		return nil, err
	}

	if err := r.sessions.TouchActivity(ctx, sessionID); err != nil {
		return nil, err
	}

	r.pub.Publish(model.EventNewMessage, model.NewMessageEvent{SessionID: sessionID, Message: msg})
	r.pub.PublishToRoom(model.ChatRoom(sessionID), model.EventMessageReceived, model.NewMessageEvent{SessionID: sessionID, Message: msg})

	if model.IsCustomerSender(senderType) {
		r.pub.Publish(model.EventNewCustomerMessage, model.CustomerMessageEvent{
			SessionID: sessionID,
			Message:   content,
			Timestamp: msg.CreatedAt,
		})
	}

	return msg, nil
}

// List returns a session's full history in insertion order.
func (r *MessageRouter) List(ctx context.Context, sessionID string) ([]model.Message, error) {
	if _, err := r.sessions.GetBySessionID(ctx, sessionID); err != nil {
		return nil, err
	}
	return r.messages.ListBySession(ctx, sessionID)
}
