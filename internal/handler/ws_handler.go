package handler

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"livechat-backend/internal/model"
	"livechat-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub  *service.Hub
	auth *service.AuthService
}

func NewWSHandler(hub *service.Hub, auth *service.AuthService) *WSHandler {
	return &WSHandler{hub: hub, auth: auth}
}

// Upgrade validates the token from the query string before handing the
// connection to the hub. Browsers cannot set headers on WebSocket dials.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "token required"})
		}

		agentID, name, _, err := h.auth.ValidateToken(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("agent_id", agentID)
		c.Locals("agent_name", name)
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	agentID, _ := c.Locals("agent_id").(int)
	agentName, _ := c.Locals("agent_name").(string)

	client := service.NewWSClient(c)
	client.AgentID = agentID
	client.Join(model.AgentRoom(agentID))

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		// Reset deadline on any message
		c.SetReadDeadline(time.Now().Add(60 * time.Second))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case model.EventPing:
			pong, _ := json.Marshal(model.WSEvent{Type: model.EventPong})
			select {
			case client.Send <- pong:
			default:
			}

		case model.EventAgentJoin:
			// The dashboard re-announces itself after reconnects.
			var join struct {
				AgentID int `json:"agentId"`
			}
			if err := json.Unmarshal(event.Data, &join); err == nil && join.AgentID != 0 {
				client.Join(model.AgentRoom(join.AgentID))
			}

		case model.EventJoinChat:
			var join struct {
				SessionID string `json:"sessionId"`
			}
			if err := json.Unmarshal(event.Data, &join); err == nil && join.SessionID != "" {
				client.Join(model.ChatRoom(join.SessionID))
			}

		case model.EventTypingStart, model.EventTypingStop:
			var typing struct {
				SessionID string `json:"sessionId"`
			}
			if err := json.Unmarshal(event.Data, &typing); err != nil || typing.SessionID == "" {
				continue
			}
			h.hub.PublishToRoom(model.ChatRoom(typing.SessionID), model.EventUserTyping, model.TypingEvent{
				SessionID: typing.SessionID,
				UserID:    strconv.Itoa(agentID),
				IsTyping:  event.Type == model.EventTypingStart,
			})

		default:
			log.Printf("WS: unknown event type %s from %s", event.Type, agentName)
		}
	}
}
