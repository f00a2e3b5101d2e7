package service

import (
	"context"
	"testing"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type pubEvent struct {
	Room    string
	Event   string
	Payload any
}

type fakePublisher struct {
	events []pubEvent
}

func (p *fakePublisher) Publish(event string, payload any) {
	p.events = append(p.events, pubEvent{Event: event, Payload: payload})
}

func (p *fakePublisher) PublishToRoom(room, event string, payload any) {
	p.events = append(p.events, pubEvent{Room: room, Event: event, Payload: payload})
}

func (p *fakePublisher) byType(event string) []pubEvent {
	var out []pubEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type notifyCall struct {
	Domain    string
	SessionID string
	Text      string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) NotifyOrigin(_ context.Context, domain, sessionID, text string) error {
	n.calls = append(n.calls, notifyCall{domain, sessionID, text})
	return nil
}

type fakeSessionStore struct {
	sessions map[string]*model.ChatSession

	createErr error
	assignErr error

	assignedName string
	bareAssigns  []string
	closes       []string
	bareCloses   []string
	deletes      []string

	domain string

	// ops records every mutating call in order.
	ops []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions:     make(map[string]*model.ChatSession),
		assignedName: "Alice",
		domain:       "shop.example.com",
	}
}

func (s *fakeSessionStore) Create(_ context.Context, req *model.StartSessionRequest) (*model.ChatSession, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.sessions[req.SessionID]; ok {
		return nil, repository.ErrSessionExists
	}
	session := &model.ChatSession{
		SessionID: req.SessionID,
		WebsiteID: req.WebsiteID,
		Status:    model.SessionWaiting,
	}
	s.sessions[req.SessionID] = session
	return session, nil
}

func (s *fakeSessionStore) GetBySessionID(_ context.Context, sessionID string) (*model.ChatSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *fakeSessionStore) List(_ context.Context, _ model.SessionFilter) ([]*model.ChatSession, error) {
	var out []*model.ChatSession
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *fakeSessionStore) AssignmentStatus(_ context.Context, sessionID string) (*model.AssignmentStatus, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &model.AssignmentStatus{Assigned: session.AgentID != nil, Status: session.Status}, nil
}

func (s *fakeSessionStore) Assign(_ context.Context, sessionID string, agentID int) (string, error) {
	if s.assignErr != nil {
		return "", s.assignErr
	}
	session, ok := s.sessions[sessionID]
	if !ok {
		return "", repository.ErrSessionNotFound
	}
	session.AgentID = &agentID
	session.Status = model.SessionActive
	s.ops = append(s.ops, "assign "+sessionID)
	return s.assignedName, nil
}

func (s *fakeSessionStore) AssignBare(_ context.Context, sessionID string, agentID int) error {
	session, ok := s.sessions[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.AgentID = &agentID
	session.Status = model.SessionActive
	s.bareAssigns = append(s.bareAssigns, sessionID)
	s.ops = append(s.ops, "assign-bare "+sessionID)
	return nil
}

func (s *fakeSessionStore) Close(_ context.Context, sessionID string, withSystemMessage bool) error {
	if _, ok := s.sessions[sessionID]; !ok {
		return repository.ErrSessionNotFound
	}
	s.sessions[sessionID].Status = model.SessionClosed
	if withSystemMessage {
		s.closes = append(s.closes, sessionID)
	} else {
		s.bareCloses = append(s.bareCloses, sessionID)
	}
	s.ops = append(s.ops, "close "+sessionID)
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	if _, ok := s.sessions[sessionID]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.deletes = append(s.deletes, sessionID)
	s.ops = append(s.ops, "delete "+sessionID)
	return nil
}

func (s *fakeSessionStore) WebsiteDomain(_ context.Context, _ string) (string, error) {
	return s.domain, nil
}

type fakeWebsiteStore struct {
	website *model.Website
	err     error
}

func (w *fakeWebsiteStore) GetActive(_ context.Context, _ int) (*model.Website, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.website, nil
}

func newLifecycleFixture() (*Lifecycle, *fakeSessionStore, *fakeWebsiteStore, *fakePublisher, *fakeNotifier) {
	sessions := newFakeSessionStore()
	websites := &fakeWebsiteStore{website: &model.Website{ID: 7, Name: "Example Shop", Domain: "shop.example.com"}}
	pub := &fakePublisher{}
	notifier := &fakeNotifier{}
	return NewLifecycle(sessions, websites, pub, notifier), sessions, websites, pub, notifier
}

// --- Start tests ---

func TestStart_PublishesNewChatAvailable(t *testing.T) {
	lc, _, _, pub, _ := newLifecycleFixture()

	session, err := lc.Start(context.Background(), &model.StartSessionRequest{
		WebsiteID: 7,
		SessionID: "sess-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionWaiting, session.Status)
	assert.Equal(t, "Example Shop", session.WebsiteName)

	events := pub.byType(model.EventNewChatAvailable)
	require.Len(t, events, 1)
	payload := events[0].Payload.(model.NewChatAvailable)
	assert.Equal(t, "sess-1", payload.SessionID)
	assert.Equal(t, "Unknown Customer", payload.CustomerName)
	assert.Equal(t, "No email", payload.CustomerEmail)
	assert.Equal(t, "General inquiry", payload.Topic)
	assert.Equal(t, "shop.example.com", payload.WebsiteDomain)
}

func TestStart_InactiveWebsite(t *testing.T) {
	lc, _, websites, pub, _ := newLifecycleFixture()
	websites.err = repository.ErrWebsiteUnavailable

	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	assert.ErrorIs(t, err, repository.ErrWebsiteUnavailable)
	assert.Empty(t, pub.events)
}

func TestStart_DuplicateSessionID(t *testing.T) {
	lc, _, _, _, _ := newLifecycleFixture()

	req := &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"}
	_, err := lc.Start(context.Background(), req)
	require.NoError(t, err)

	_, err = lc.Start(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrSessionExists)
}

// --- Assign tests ---

func TestAssign_Strict_NotifiesAndPublishes(t *testing.T) {
	lc, sessions, _, pub, notifier := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)
	pub.events = nil

	require.NoError(t, lc.Assign(context.Background(), "sess-1", 3, true))

	assert.Equal(t, model.SessionActive, sessions.sessions["sess-1"].Status)

	assigned := pub.byType(model.EventAgentAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, model.ChatRoom("sess-1"), assigned[0].Room)
	payload := assigned[0].Payload.(model.AgentAssignedEvent)
	assert.Equal(t, 3, payload.AgentID)
	assert.Equal(t, "Alice", payload.AgentName)

	updated := pub.byType(model.EventChatStatusUpdated)
	require.Len(t, updated, 1)
	assert.Empty(t, updated[0].Room)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Connected with agent: Alice", notifier.calls[0].Text)
	assert.Equal(t, "shop.example.com", notifier.calls[0].Domain)
}

func TestAssign_Strict_AgentBusy(t *testing.T) {
	lc, sessions, _, pub, notifier := newLifecycleFixture()
	sessions.assignErr = repository.ErrAgentBusy

	err := lc.Assign(context.Background(), "sess-1", 3, true)
	assert.ErrorIs(t, err, repository.ErrAgentBusy)
	assert.Empty(t, pub.events)
	assert.Empty(t, notifier.calls)
}

func TestAssign_NonStrict_IsSilent(t *testing.T) {
	lc, sessions, _, pub, notifier := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)
	pub.events = nil

	require.NoError(t, lc.Assign(context.Background(), "sess-1", 3, false))

	assert.Equal(t, []string{"sess-1"}, sessions.bareAssigns)
	assert.Empty(t, pub.events)
	assert.Empty(t, notifier.calls)
}

func TestAssign_NonStrict_ReactivatesClosedSession(t *testing.T) {
	lc, sessions, _, _, _ := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)
	require.NoError(t, lc.Close(context.Background(), "sess-1", false))

	require.NoError(t, lc.Assign(context.Background(), "sess-1", 3, false))
	assert.Equal(t, model.SessionActive, sessions.sessions["sess-1"].Status)
}

// --- Close tests ---

func TestClose_FullPath(t *testing.T) {
	lc, sessions, _, pub, notifier := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)
	pub.events = nil

	require.NoError(t, lc.Close(context.Background(), "sess-1", true))

	assert.Equal(t, []string{"sess-1"}, sessions.closes)

	changed := pub.byType(model.EventChatStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, model.ChatRoom("sess-1"), changed[0].Room)

	updated := pub.byType(model.EventChatStatusUpdated)
	require.Len(t, updated, 1)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Chat session closed by agent", notifier.calls[0].Text)
}

func TestClose_BareIsSilent(t *testing.T) {
	lc, sessions, _, pub, notifier := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)
	pub.events = nil

	require.NoError(t, lc.Close(context.Background(), "sess-1", false))

	assert.Equal(t, []string{"sess-1"}, sessions.bareCloses)
	assert.Empty(t, pub.events)
	assert.Empty(t, notifier.calls)
}

func TestClose_UnknownSession(t *testing.T) {
	lc, _, _, _, _ := newLifecycleFixture()
	err := lc.Close(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

// --- Delete tests ---

func TestDelete_UnknownSession(t *testing.T) {
	lc, _, _, _, _ := newLifecycleFixture()
	err := lc.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestDelete_NotifiesBeforeDeleting(t *testing.T) {
	lc, sessions, _, _, notifier := newLifecycleFixture()
	_, err := lc.Start(context.Background(), &model.StartSessionRequest{WebsiteID: 7, SessionID: "sess-1"})
	require.NoError(t, err)

	require.NoError(t, lc.Delete(context.Background(), "sess-1"))

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Chat session closed by agent", notifier.calls[0].Text)
	assert.Equal(t, []string{"sess-1"}, sessions.deletes)
	assert.NotContains(t, sessions.sessions, "sess-1")
}
