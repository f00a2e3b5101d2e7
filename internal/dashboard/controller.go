package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"livechat-backend/internal/model"
)

const defaultPollInterval = 3 * time.Second

// Controller mirrors the browser dashboard's state machine: a session
// list kept fresh by treating every relevant event as a cache
// invalidation, and one open conversation fed by both the socket and a
// poll. Messages from the two paths merge by id so a message can never
// render twice.
type Controller struct {
	client *Client
	socket *Socket
	agent  *model.Agent
	poll   time.Duration

	mu       sync.Mutex
	sessions []*model.ChatSession
	current  string
	seen     map[int64]bool
	messages []model.Message
}

// NewController takes an already-authenticated client. socket may be nil;
// the controller then runs on polling alone.
func NewController(client *Client, socket *Socket, agent *model.Agent) *Controller {
	return &Controller{
		client: client,
		socket: socket,
		agent:  agent,
		poll:   defaultPollInterval,
		seen:   make(map[int64]bool),
	}
}

// Run consumes socket events and polls the open session until ctx ends or
// the socket closes.
func (d *Controller) Run(ctx context.Context) error {
	if d.socket != nil {
		if err := d.socket.AgentJoin(d.agent.ID); err != nil {
			return err
		}
	}
	if err := d.RefreshSessions(ctx); err != nil {
		return err
	}

	var events <-chan model.WSEvent
	if d.socket != nil {
		events = d.socket.Events()
	}

	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("socket closed")
			}
			d.handleEvent(ctx, event)

		case <-ticker.C:
			d.pollMessages(ctx)
		}
	}
}

func (d *Controller) handleEvent(ctx context.Context, event model.WSEvent) {
	switch event.Type {
	case model.EventNewMessage:
		var payload model.NewMessageEvent
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		if payload.Message != nil && payload.SessionID == d.Current() {
			d.merge([]model.Message{*payload.Message})
		}
		d.refresh(ctx)

	case model.EventNewChatAvailable, model.EventChatStatusChanged, model.EventChatStatusUpdated, model.EventAgentAssigned:
		d.refresh(ctx)
	}
}

// Open loads a conversation. A waiting session is claimed for the current
// agent first, then greeted, matching the dashboard's click-to-open flow.
func (d *Controller) Open(ctx context.Context, sessionID string) error {
	session, messages, err := d.client.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status == model.SessionWaiting {
		if err := d.client.Assign(ctx, sessionID, d.agent.ID); err != nil {
			return err
		}
		welcome := fmt.Sprintf("You are now connected with %s! How can I help you?", d.agent.Name)
		if _, err := d.client.PostMessage(ctx, sessionID, welcome); err != nil {
			return err
		}
	}

	if d.socket != nil {
		if err := d.socket.JoinChat(sessionID); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.current = sessionID
	d.seen = make(map[int64]bool)
	d.messages = nil
	d.mu.Unlock()

	d.merge(messages)
	return nil
}

// Send posts an agent message into the open conversation.
func (d *Controller) Send(ctx context.Context, content string) error {
	sessionID := d.Current()
	if sessionID == "" {
		return fmt.Errorf("no open session")
	}
	msg, err := d.client.PostMessage(ctx, sessionID, content)
	if err != nil {
		return err
	}
	d.merge([]model.Message{*msg})
	return nil
}

// CloseCurrent closes the open conversation and clears it.
func (d *Controller) CloseCurrent(ctx context.Context) error {
	sessionID := d.Current()
	if sessionID == "" {
		return nil
	}
	if err := d.client.CloseSession(ctx, sessionID); err != nil {
		return err
	}

	d.mu.Lock()
	d.current = ""
	d.mu.Unlock()
	return d.RefreshSessions(ctx)
}

// RefreshSessions re-fetches the authoritative session list.
func (d *Controller) RefreshSessions(ctx context.Context) error {
	sessions, err := d.client.Sessions(ctx, "")
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()
	return nil
}

func (d *Controller) refresh(ctx context.Context) {
	if err := d.RefreshSessions(ctx); err != nil {
		log.Printf("[Dashboard] refresh sessions: %v", err)
	}
}

func (d *Controller) pollMessages(ctx context.Context) {
	sessionID := d.Current()
	if sessionID == "" {
		return
	}
	messages, err := d.client.Messages(ctx, sessionID)
	if err != nil {
		log.Printf("[Dashboard] poll messages: %v", err)
		return
	}
	d.merge(messages)
}

// merge adds only messages whose id has not been seen. Order of first
// arrival wins; both sources deliver in created_at order.
func (d *Controller) merge(messages []model.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range messages {
		if d.seen[m.ID] {
			continue
		}
		d.seen[m.ID] = true
		d.messages = append(d.messages, m)
	}
}

func (d *Controller) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Controller) Sessions() []*model.ChatSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*model.ChatSession, len(d.sessions))
	copy(out, d.sessions)
	return out
}

func (d *Controller) Messages() []model.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Message, len(d.messages))
	copy(out, d.messages)
	return out
}
