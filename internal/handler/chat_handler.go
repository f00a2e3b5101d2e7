package handler

import (
	"errors"
	"log"
	"strconv"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"
	"livechat-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	lifecycle *service.Lifecycle
	router    *service.MessageRouter
}

func NewChatHandler(lifecycle *service.Lifecycle, router *service.MessageRouter) *ChatHandler {
	return &ChatHandler{lifecycle: lifecycle, router: router}
}

// Start opens a new chat session. Widget-facing, no auth.
// POST /api/chats/start
func (h *ChatHandler) Start(c *fiber.Ctx) error {
	var req model.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.WebsiteID == 0 || req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Website ID and session ID are required"})
	}

	session, err := h.lifecycle.Start(c.Context(), &req)
	if err != nil {
		return chatError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"session": session,
	})
}

// ListSessions returns the dashboard's session list.
// GET /api/chats/sessions?status=&website_id=&limit=&offset=
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	websiteID, _ := strconv.Atoi(c.Query("website_id"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filter := model.SessionFilter{
		Status:    c.Query("status"),
		WebsiteID: websiteID,
		Limit:     limit,
		Offset:    offset,
	}

	sessions, err := h.lifecycle.List(c.Context(), filter)
	if err != nil {
		log.Printf("[Chat] list sessions: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	if sessions == nil {
		sessions = []*model.ChatSession{}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": sessions,
		"pagination": model.Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  len(sessions),
		},
	})
}

// GetSession returns one session together with its message history.
// GET /api/chats/sessions/:sessionId
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	session, err := h.lifecycle.Get(c.Context(), sessionID)
	if err != nil {
		return chatError(c, err)
	}

	messages, err := h.router.List(c.Context(), sessionID)
	if err != nil {
		return chatError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"session":  session,
		"messages": messages,
	})
}

// AssignSession is the strict assignment path: online check, capacity
// check, audit row, system message.
// POST /api/chats/sessions/:sessionId/assign
func (h *ChatHandler) AssignSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req struct {
		AgentID int `json:"agentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.AgentID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Agent ID is required"})
	}

	if err := h.lifecycle.Assign(c.Context(), sessionID, req.AgentID, true); err != nil {
		return chatError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Agent assigned successfully"})
}

// Assign is the non-strict path the dashboard's auto-assign uses: a bare
// status flip, no capacity check, no audit row.
// POST /api/chats/assign
func (h *ChatHandler) Assign(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		AgentID   int    `json:"agent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" || req.AgentID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID and agent ID are required"})
	}

	if err := h.lifecycle.Assign(c.Context(), req.SessionID, req.AgentID, false); err != nil {
		return chatError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Agent assigned successfully"})
}

// CloseSession closes with the system message, origin callback and
// fan-out. POST /api/chats/sessions/:sessionId/close
func (h *ChatHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.lifecycle.Close(c.Context(), c.Params("sessionId"), true); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Session closed successfully"})
}

// Close is the alternate close endpoint: bare status update.
// POST /api/chats/close
func (h *ChatHandler) Close(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	if err := h.lifecycle.Close(c.Context(), req.SessionID, false); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Session closed successfully"})
}

// Delete removes a session and all its messages.
// DELETE /api/chats/delete
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	if err := h.lifecycle.Delete(c.Context(), req.SessionID); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Chat session deleted successfully"})
}

// Assignment lets the widget poll whether an agent has picked up.
// GET /api/chats/assignment/:sessionId (no auth)
func (h *ChatHandler) Assignment(c *fiber.Ctx) error {
	status, err := h.lifecycle.AssignmentStatus(c.Context(), c.Params("sessionId"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": status})
}

// WidgetMessages returns the history for the widget's poll.
// GET /api/chats/messages?session_id= (no auth)
func (h *ChatHandler) WidgetMessages(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID is required"})
	}

	messages, err := h.router.List(c.Context(), sessionID)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

// AgentMessages returns the history for the dashboard.
// GET /api/chats/:sessionId/messages
func (h *ChatHandler) AgentMessages(c *fiber.Ctx) error {
	messages, err := h.router.List(c.Context(), c.Params("sessionId"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

// PostWidgetMessage accepts a message from the widget. No auth; the
// session id is the correlation key.
// POST /api/chats/message
func (h *ChatHandler) PostWidgetMessage(c *fiber.Ctx) error {
	var req model.WidgetMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" || req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID and message are required"})
	}

	msg, err := h.router.Post(c.Context(), req.SessionID, req.Message, req.SenderType, nil, "text", nil)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// PostAgentMessage accepts a message from an authenticated agent.
// POST /api/chats/sessions/:sessionId/messages
func (h *ChatHandler) PostAgentMessage(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req model.AgentMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Content == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Message content is required"})
	}

	agentID, _ := c.Locals("agent_id").(int)
	msg, err := h.router.Post(c.Context(), sessionID, req.Content, model.SenderAgent, &agentID, req.MessageType, req.Metadata)
	if err != nil {
		return chatError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "message": msg})
}

// chatError maps domain errors onto HTTP statuses; anything unexpected is
// a 500 with a generic body.
func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, repository.ErrSessionExists):
		return c.Status(400).JSON(fiber.Map{"error": "Session already exists"})
	case errors.Is(err, repository.ErrWebsiteUnavailable):
		return c.Status(404).JSON(fiber.Map{"error": "Website not found or inactive"})
	case errors.Is(err, repository.ErrAgentUnavailable):
		return c.Status(404).JSON(fiber.Map{"error": "Agent not found or offline"})
	case errors.Is(err, repository.ErrAgentBusy):
		return c.Status(400).JSON(fiber.Map{"error": "Agent has reached maximum concurrent chats"})
	default:
		log.Printf("[Chat] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
