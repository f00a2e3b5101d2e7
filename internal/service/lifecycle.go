package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"
)

// SessionStore is the persistence contract the lifecycle manager drives.
// Implemented by repository.ChatSessionRepository; multi-statement
// operations (Assign, Close with message, Delete) are transactional on the
// store side.
type SessionStore interface {
	Create(ctx context.Context, req *model.StartSessionRequest) (*model.ChatSession, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.ChatSession, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
	List(ctx context.Context, filter model.SessionFilter) ([]*model.ChatSession, error)
	AssignmentStatus(ctx context.Context, sessionID string) (*model.AssignmentStatus, error)
	Assign(ctx context.Context, sessionID string, agentID int) (agentName string, err error)
	AssignBare(ctx context.Context, sessionID string, agentID int) error
	Close(ctx context.Context, sessionID string, withSystemMessage bool) error
	Delete(ctx context.Context, sessionID string) error
	WebsiteDomain(ctx context.Context, sessionID string) (string, error)
}

type WebsiteStore interface {
	GetActive(ctx context.Context, id int) (*model.Website, error)
}

// Lifecycle owns every transition a chat session may undergo:
// waiting -> active -> closed, plus delete from any state.
type Lifecycle struct {
	sessions SessionStore
	websites WebsiteStore
	pub      Publisher
	notifier OriginNotifier
}

func NewLifecycle(sessions SessionStore, websites WebsiteStore, pub Publisher, notifier OriginNotifier) *Lifecycle {
	return &Lifecycle{sessions: sessions, websites: websites, pub: pub, notifier: notifier}
}

// Start is the sole creation path for sessions. The website must exist and
// be active; the external session id must be unused.
func (l *Lifecycle) Start(ctx context.Context, req *model.StartSessionRequest) (*model.ChatSession, error) {
	website, err := l.websites.GetActive(ctx, req.WebsiteID)
	if err != nil {
		return nil, err
	}

	session, err := l.sessions.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	session.WebsiteName = website.Name
	session.WebsiteDomain = website.Domain

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Unknown Customer"
	}
	customerEmail := req.CustomerEmail
	if customerEmail == "" {
		customerEmail = "No email"
	}
	topic := req.Topic
	if topic == "" {
		topic = "General inquiry"
	}

	l.pub.Publish(model.EventNewChatAvailable, model.NewChatAvailable{
		SessionID:     session.SessionID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Topic:         topic,
		WebsiteID:     website.ID,
		WebsiteName:   website.Name,
		WebsiteDomain: website.Domain,
		Timestamp:     time.Now().UTC(),
	})
	log.Printf("[Lifecycle] session %s started for website %d", session.SessionID, website.ID)

	return session, nil
}

// Assign puts an agent on a session. strict runs the online/capacity
// checks, the audit row and the system message in one transaction; the
// non-strict variant is the bare status flip the dashboard's auto-assign
// uses.
func (l *Lifecycle) Assign(ctx context.Context, sessionID string, agentID int, strict bool) error {
	if !strict {
		return l.sessions.AssignBare(ctx, sessionID, agentID)
	}

	agentName, err := l.sessions.Assign(ctx, sessionID, agentID)
	if err != nil {
		return err
	}

	l.notifyOrigin(ctx, sessionID, fmt.Sprintf("Connected with agent: %s", agentName))

	now := time.Now().UTC()
	l.pub.PublishToRoom(model.ChatRoom(sessionID), model.EventAgentAssigned, model.AgentAssignedEvent{
		SessionID: sessionID, AgentID: agentID, AgentName: agentName, Timestamp: now,
	})
	l.pub.Publish(model.EventChatStatusUpdated, model.ChatStatusEvent{
		SessionID: sessionID, Status: model.SessionActive, AgentID: &agentID, Timestamp: now,
	})
	return nil
}

// Close marks a session closed. Closing an already-closed session is
// accepted. withSystemMessage selects the full path (system message,
// origin callback, fan-out); the alternate endpoint does the bare update.
func (l *Lifecycle) Close(ctx context.Context, sessionID string, withSystemMessage bool) error {
	if err := l.sessions.Close(ctx, sessionID, withSystemMessage); err != nil {
		return err
	}
	if !withSystemMessage {
		return nil
	}

	l.notifyOrigin(ctx, sessionID, "Chat session closed by agent")

	now := time.Now().UTC()
	l.pub.PublishToRoom(model.ChatRoom(sessionID), model.EventChatStatusChanged, model.ChatStatusEvent{
		SessionID: sessionID, Status: model.SessionClosed, Timestamp: now,
	})
	l.pub.Publish(model.EventChatStatusUpdated, model.ChatStatusEvent{
		SessionID: sessionID, Status: model.SessionClosed, Timestamp: now,
	})
	return nil
}

// Delete removes the session and its messages. The origin "closed"
// callback fires before the delete executes.
func (l *Lifecycle) Delete(ctx context.Context, sessionID string) error {
	exists, err := l.sessions.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrSessionNotFound
	}

	l.notifyOrigin(ctx, sessionID, "Chat session closed by agent")

	if err := l.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("[Lifecycle] session %s deleted", sessionID)
	return nil
}

func (l *Lifecycle) Get(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	return l.sessions.GetBySessionID(ctx, sessionID)
}

func (l *Lifecycle) List(ctx context.Context, filter model.SessionFilter) ([]*model.ChatSession, error) {
	return l.sessions.List(ctx, filter)
}

func (l *Lifecycle) AssignmentStatus(ctx context.Context, sessionID string) (*model.AssignmentStatus, error) {
	return l.sessions.AssignmentStatus(ctx, sessionID)
}

func (l *Lifecycle) notifyOrigin(ctx context.Context, sessionID, text string) {
	domain, err := l.sessions.WebsiteDomain(ctx, sessionID)
	if err != nil {
		log.Printf("[Lifecycle] no origin domain for session %s: %v", sessionID, err)
		return
	}
	logNotify(l.notifier, ctx, domain, sessionID, text)
}
