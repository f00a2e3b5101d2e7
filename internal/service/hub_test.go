package service

import (
	"encoding/json"
	"testing"
	"time"

	"livechat-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func recvEvent(t *testing.T, client *WSClient) model.WSEvent {
	t.Helper()
	select {
	case data := <-client.Send:
		var event model.WSEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return model.WSEvent{}
	}
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	hub := startHub(t)

	a := NewWSClient(nil)
	a.AgentID = 1
	b := NewWSClient(nil)
	b.AgentID = 2
	hub.Register(a)
	hub.Register(b)

	hub.Publish(model.EventChatStatusUpdated, model.ChatStatusEvent{SessionID: "sess-1", Status: model.SessionClosed})

	for _, client := range []*WSClient{a, b} {
		event := recvEvent(t, client)
		assert.Equal(t, model.EventChatStatusUpdated, event.Type)

		var payload model.ChatStatusEvent
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, "sess-1", payload.SessionID)
	}
}

func TestHub_PublishToRoom_OnlyMembers(t *testing.T) {
	hub := startHub(t)

	member := NewWSClient(nil)
	member.AgentID = 1
	member.Join(model.ChatRoom("sess-1"))
	outsider := NewWSClient(nil)
	outsider.AgentID = 2
	hub.Register(member)
	hub.Register(outsider)

	hub.PublishToRoom(model.ChatRoom("sess-1"), model.EventUserTyping, model.TypingEvent{SessionID: "sess-1", IsTyping: true})

	event := recvEvent(t, member)
	assert.Equal(t, model.EventUserTyping, event.Type)

	select {
	case data := <-outsider.Send:
		t.Fatalf("outsider received room event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_OnlineCountTracksRegistrations(t *testing.T) {
	hub := startHub(t)

	client := NewWSClient(nil)
	client.AgentID = 1
	hub.Register(client)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.OnlineCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := &WSClient{Send: make(chan []byte, 1), rooms: make(map[string]bool)}
	slow.AgentID = 9
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	// First fills the buffer, second hits the full channel and evicts.
	hub.Publish(model.EventPong, nil)
	hub.Publish(model.EventPong, nil)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 0 }, time.Second, 10*time.Millisecond)
}
