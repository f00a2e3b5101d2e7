package dashboard

import (
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"livechat-backend/internal/model"

	"github.com/gorilla/websocket"
)

// Socket is the dashboard side of the realtime link. It decodes server
// events onto a channel and lets the controller announce itself, join
// chat rooms and signal typing.
type Socket struct {
	conn   *websocket.Conn
	events chan model.WSEvent

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

// DialSocket connects to wsURL (ws://host/ws) passing the bearer token as
// a query parameter, the only place a browser WebSocket can carry it.
func DialSocket(wsURL, token string) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 20 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	s := &Socket{
		conn:   conn,
		events: make(chan model.WSEvent, 64),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Events delivers decoded server events. The channel closes when the
// connection drops.
func (s *Socket) Events() <-chan model.WSEvent {
	return s.events
}

func (s *Socket) Close() error {
	s.once.Do(func() { close(s.closed) })
	return s.conn.Close()
}

func (s *Socket) AgentJoin(agentID int) error {
	return s.emit(model.EventAgentJoin, map[string]any{"agentId": agentID})
}

func (s *Socket) JoinChat(sessionID string) error {
	return s.emit(model.EventJoinChat, map[string]any{"sessionId": sessionID})
}

func (s *Socket) Typing(sessionID string, typing bool) error {
	event := model.EventTypingStop
	if typing {
		event = model.EventTypingStart
	}
	return s.emit(event, map[string]any{"sessionId": sessionID})
}

func (s *Socket) Ping() error {
	return s.emit(model.EventPing, nil)
}

func (s *Socket) emit(event string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(model.WSEvent{Type: event, Data: raw})
}

func (s *Socket) readLoop() {
	defer close(s.events)
	for {
		var event model.WSEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			select {
			case <-s.closed:
			default:
				log.Printf("[Dashboard] socket read: %v", err)
			}
			return
		}
		if event.Type == model.EventPong {
			continue
		}
		select {
		case s.events <- event:
		default:
			// Slow consumer; the controller re-fetches over HTTP anyway.
		}
	}
}
