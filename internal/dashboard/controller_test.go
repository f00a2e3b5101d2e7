package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"livechat-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal in-memory stand-in for the chat endpoints the
// controller drives.
type fakeAPI struct {
	mu       sync.Mutex
	session  model.ChatSession
	messages []model.Message
	nextID   int64

	assigns []int
	posted  []string
}

func newFakeAPI(status string) *fakeAPI {
	return &fakeAPI{
		session: model.ChatSession{SessionID: "sess-1", WebsiteID: 7, Status: status},
	}
}

func (f *fakeAPI) addMessage(content, senderType string) model.Message {
	f.nextID++
	msg := model.Message{
		ID: f.nextID, SessionID: "sess-1", SenderType: senderType,
		Content: content, MessageType: "text", CreatedAt: time.Now().UTC(),
	}
	f.messages = append(f.messages, msg)
	return msg
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/chats/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "sessions": []model.ChatSession{f.session}})
	})

	mux.HandleFunc("GET /api/chats/sessions/sess-1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "session": f.session, "messages": f.messages})
	})

	mux.HandleFunc("POST /api/chats/assign", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
			AgentID   int    `json:"agent_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.assigns = append(f.assigns, req.AgentID)
		f.session.Status = model.SessionActive
		f.session.AgentID = &req.AgentID
		writeJSON(w, map[string]any{"success": true})
	})

	mux.HandleFunc("POST /api/chats/sessions/sess-1/messages", func(w http.ResponseWriter, r *http.Request) {
		var req model.AgentMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.posted = append(f.posted, req.Content)
		msg := f.addMessage(req.Content, model.SenderAgent)
		writeJSON(w, map[string]any{"success": true, "message": msg})
	})

	mux.HandleFunc("GET /api/chats/sess-1/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "messages": f.messages})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newControllerFixture(t *testing.T, status string) (*Controller, *fakeAPI) {
	t.Helper()
	api := newFakeAPI(status)
	ts := httptest.NewServer(api.handler())
	t.Cleanup(ts.Close)

	client := NewClient(ts.URL)
	agent := &model.Agent{ID: 3, Name: "Alice"}
	return NewController(client, nil, agent), api
}

// --- Open tests ---

func TestOpen_WaitingSessionAutoAssignsAndGreets(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionWaiting)

	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	assert.Equal(t, []int{3}, api.assigns)
	require.Len(t, api.posted, 1)
	assert.Equal(t, "You are now connected with Alice! How can I help you?", api.posted[0])
	assert.Equal(t, "sess-1", ctrl.Current())
}

func TestOpen_ActiveSessionDoesNotReassign(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionActive)

	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	assert.Empty(t, api.assigns)
	assert.Empty(t, api.posted)
}

func TestOpen_LoadsExistingHistory(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionActive)
	api.addMessage("hello", model.SenderCustomer)
	api.addMessage("hi back", model.SenderAgent)

	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	messages := ctrl.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
}

// --- merge tests ---

func TestMerge_DeduplicatesByID(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionActive)
	api.addMessage("hello", model.SenderCustomer)
	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	// The socket and the poll both deliver the same message.
	ctrl.merge(api.messages)
	ctrl.merge(api.messages)

	assert.Len(t, ctrl.Messages(), 1)
}

func TestMerge_PreservesFirstArrivalOrder(t *testing.T) {
	ctrl, _ := newControllerFixture(t, model.SessionActive)
	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	ctrl.merge([]model.Message{{ID: 1, Content: "one"}, {ID: 2, Content: "two"}})
	ctrl.merge([]model.Message{{ID: 2, Content: "two"}, {ID: 3, Content: "three"}})

	messages := ctrl.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
	assert.Equal(t, "three", messages[2].Content)
}

// --- poll / event tests ---

func TestPollMessages_PicksUpNewMessages(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionActive)
	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	api.mu.Lock()
	api.addMessage("polled in", model.SenderCustomer)
	api.mu.Unlock()

	ctrl.pollMessages(context.Background())
	messages := ctrl.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "polled in", messages[0].Content)
}

func TestHandleEvent_NewMessageForOpenSession(t *testing.T) {
	ctrl, _ := newControllerFixture(t, model.SessionActive)
	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	payload, err := json.Marshal(model.NewMessageEvent{
		SessionID: "sess-1",
		Message:   &model.Message{ID: 42, SessionID: "sess-1", Content: "pushed"},
	})
	require.NoError(t, err)

	ctrl.handleEvent(context.Background(), model.WSEvent{Type: model.EventNewMessage, Data: payload})

	messages := ctrl.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "pushed", messages[0].Content)
}

func TestHandleEvent_StatusChangeRefreshesSessions(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionWaiting)
	require.NoError(t, ctrl.RefreshSessions(context.Background()))
	require.Equal(t, model.SessionWaiting, ctrl.Sessions()[0].Status)

	api.mu.Lock()
	api.session.Status = model.SessionClosed
	api.mu.Unlock()

	ctrl.handleEvent(context.Background(), model.WSEvent{Type: model.EventChatStatusChanged})
	assert.Equal(t, model.SessionClosed, ctrl.Sessions()[0].Status)
}

// --- Send tests ---

func TestSend_RequiresOpenSession(t *testing.T) {
	ctrl, _ := newControllerFixture(t, model.SessionActive)

	err := ctrl.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no open session"))
}

func TestSend_PostsAndRecordsMessage(t *testing.T) {
	ctrl, api := newControllerFixture(t, model.SessionActive)
	require.NoError(t, ctrl.Open(context.Background(), "sess-1"))

	require.NoError(t, ctrl.Send(context.Background(), "how can I help?"))

	assert.Equal(t, []string{"how can I help?"}, api.posted)
	messages := ctrl.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "how can I help?", messages[0].Content)
}
