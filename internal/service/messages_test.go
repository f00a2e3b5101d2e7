package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeMessageStore struct {
	nextID   int64
	messages map[string][]model.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string][]model.Message)}
}

func (m *fakeMessageStore) Insert(_ context.Context, sessionID, senderType string, senderID *int, content, messageType string, metadata json.RawMessage) (*model.Message, error) {
	m.nextID++
	msg := model.Message{
		ID:          m.nextID,
		SessionID:   sessionID,
		SenderType:  senderType,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return &msg, nil
}

func (m *fakeMessageStore) ListBySession(_ context.Context, sessionID string) ([]model.Message, error) {
	return m.messages[sessionID], nil
}

type fakeActivityStore struct {
	session *model.ChatSession
	touched []string
}

func (s *fakeActivityStore) GetBySessionID(_ context.Context, sessionID string) (*model.ChatSession, error) {
	if s.session == nil || s.session.SessionID != sessionID {
		return nil, repository.ErrSessionNotFound
	}
	return s.session, nil
}

func (s *fakeActivityStore) TouchActivity(_ context.Context, sessionID string) error {
	s.touched = append(s.touched, sessionID)
	return nil
}

func newRouterFixture() (*MessageRouter, *fakeMessageStore, *fakeActivityStore, *fakePublisher) {
	agentID := 3
	messages := newFakeMessageStore()
	sessions := &fakeActivityStore{session: &model.ChatSession{
		SessionID: "sess-1",
		Status:    model.SessionActive,
		AgentID:   &agentID,
	}}
	pub := &fakePublisher{}
	return NewMessageRouter(messages, sessions, pub), messages, sessions, pub
}

// --- Post tests ---

func TestPost_AgentMessageFanOut(t *testing.T) {
	router, _, sessions, pub := newRouterFixture()
	senderID := 3

	msg, err := router.Post(context.Background(), "sess-1", "hello", model.SenderAgent, &senderID, "text", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, []string{"sess-1"}, sessions.touched)

	global := pub.byType(model.EventNewMessage)
	require.Len(t, global, 1)
	assert.Empty(t, global[0].Room)

	room := pub.byType(model.EventMessageReceived)
	require.Len(t, room, 1)
	assert.Equal(t, model.ChatRoom("sess-1"), room[0].Room)

	assert.Empty(t, pub.byType(model.EventNewCustomerMessage))
}

func TestPost_CustomerMessageEmitsCustomerEvent(t *testing.T) {
	router, _, _, pub := newRouterFixture()

	_, err := router.Post(context.Background(), "sess-1", "help please", model.SenderUser, nil, "text", nil)
	require.NoError(t, err)

	events := pub.byType(model.EventNewCustomerMessage)
	require.Len(t, events, 1)
	payload := events[0].Payload.(model.CustomerMessageEvent)
	assert.Equal(t, "sess-1", payload.SessionID)
	assert.Equal(t, "help please", payload.Message)
}

func TestPost_CustomerAliasSenders(t *testing.T) {
	router, _, _, pub := newRouterFixture()

	_, err := router.Post(context.Background(), "sess-1", "a", model.SenderCustomer, nil, "text", nil)
	require.NoError(t, err)
	_, err = router.Post(context.Background(), "sess-1", "b", model.SenderUser, nil, "text", nil)
	require.NoError(t, err)

	assert.Len(t, pub.byType(model.EventNewCustomerMessage), 2)
}

func TestPost_UnknownSession(t *testing.T) {
	router, _, _, pub := newRouterFixture()

	_, err := router.Post(context.Background(), "ghost", "hello", model.SenderAgent, nil, "text", nil)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.Empty(t, pub.events)
}

func TestPost_InheritsAssignedAgent(t *testing.T) {
	router, messages, _, _ := newRouterFixture()

	msg, err := router.Post(context.Background(), "sess-1", "auto reply", model.SenderAgent, nil, "text", nil)
	require.NoError(t, err)
	require.NotNil(t, msg.SenderID)
	assert.Equal(t, 3, *msg.SenderID)
	assert.Len(t, messages.messages["sess-1"], 1)
}

func TestPost_DefaultsSenderTypeToAgent(t *testing.T) {
	router, _, _, _ := newRouterFixture()

	msg, err := router.Post(context.Background(), "sess-1", "hi", "", nil, "text", nil)
	require.NoError(t, err)
	assert.Equal(t, model.SenderAgent, msg.SenderType)
}

// --- List tests ---

func TestList_UnknownSession(t *testing.T) {
	router, _, _, _ := newRouterFixture()
	_, err := router.List(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestList_ReturnsInsertionOrder(t *testing.T) {
	router, _, _, _ := newRouterFixture()

	for _, content := range []string{"one", "two", "three"} {
		_, err := router.Post(context.Background(), "sess-1", content, model.SenderAgent, nil, "text", nil)
		require.NoError(t, err)
	}

	messages, err := router.List(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "three", messages[2].Content)
}
