package service

import (
	"encoding/json"
	"log"
	"sync"

	"livechat-backend/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// Publisher is the fan-out seam: handlers and services publish through it
// instead of reaching for a process-global broadcaster.
type Publisher interface {
	Publish(event string, payload any)
	PublishToRoom(room, event string, payload any)
}

type WSClient struct {
	Conn    *websocket.Conn
	AgentID int
	Send    chan []byte

	mu    sync.Mutex
	rooms map[string]bool
}

func NewWSClient(conn *websocket.Conn) *WSClient {
	return &WSClient{
		Conn:  conn,
		Send:  make(chan []byte, 256),
		rooms: make(map[string]bool),
	}
}

func (c *WSClient) Join(room string) {
	c.mu.Lock()
	c.rooms[room] = true
	c.mu.Unlock()
}

func (c *WSClient) InRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[room]
}

// Hub delivers events to every connected dashboard with best-effort
// semantics: no queue, no replay, and a client with a full Send buffer is
// dropped. Disconnected dashboards re-fetch authoritative state over HTTP.
type Hub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan []byte
	mu         sync.RWMutex
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: agent %d connected (total: %d)", client.AgentID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: agent %d disconnected (total: %d)", client.AgentID, total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) Register(client *WSClient) {
	h.register <- client
}

func (h *Hub) Unregister(client *WSClient) {
	h.unregister <- client
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts an event to every connected client.
func (h *Hub) Publish(event string, payload any) {
	data := encodeEvent(event, payload)
	if data == nil {
		return
	}
	h.broadcast <- data
}

// PublishToRoom delivers only to clients that joined the room
// (chat-{sessionID} or agent-{agentID}).
func (h *Hub) PublishToRoom(room, event string, payload any) {
	data := encodeEvent(event, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.InRoom(room) {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}

func encodeEvent(event string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WS: marshal %s payload: %v", event, err)
		return nil
	}
	data, err := json.Marshal(model.WSEvent{Type: event, Data: raw})
	if err != nil {
		return nil
	}
	return data
}
