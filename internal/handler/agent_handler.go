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

type AgentHandler struct {
	agents *repository.AgentRepository
}

func NewAgentHandler(agents *repository.AgentRepository) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// List returns every agent with live chat counts.
// GET /api/agents
func (h *AgentHandler) List(c *fiber.Ctx) error {
	agents, err := h.agents.List(c.Context())
	if err != nil {
		log.Printf("[Agent] list: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	if agents == nil {
		agents = []*model.Agent{}
	}
	return c.JSON(fiber.Map{"success": true, "agents": agents})
}

// Get returns one agent.
// GET /api/agents/:id
func (h *AgentHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	agent, err := h.agents.GetByID(c.Context(), id)
	if err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "agent": agent})
}

// Create adds a new agent.
// POST /api/agents
func (h *AgentHandler) Create(c *fiber.Ctx) error {
	var req model.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Name, email and password are required"})
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		log.Printf("[Agent] hash password: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}

	agent, err := h.agents.Create(c.Context(), req.Name, req.Email, hash, req.MaxConcurrentChats)
	if err != nil {
		return agentError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "agent": agent})
}

// Update edits name, email, max chats or status.
// PUT /api/agents/:id
func (h *AgentHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	var req model.UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	agent, err := h.agents.Update(c.Context(), id, &req)
	if err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "agent": agent})
}

// ChangePassword replaces an agent's password hash.
// POST /api/agents/:id/change-password
func (h *AgentHandler) ChangePassword(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Password) < 6 {
		return c.Status(400).JSON(fiber.Map{"error": "Password must be at least 6 characters"})
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		log.Printf("[Agent] hash password: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}

	if err := h.agents.UpdatePassword(c.Context(), id, hash); err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password updated successfully"})
}

// Stats returns the per-agent session counters plus a daily series.
// GET /api/agents/:id/stats?days=30
func (h *AgentHandler) Stats(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent ID"})
	}
	days, _ := strconv.Atoi(c.Query("days", "30"))

	stats, daily, err := h.agents.Stats(c.Context(), id, days)
	if err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"stats":          stats,
		"daily_sessions": daily,
	})
}

// Delete removes an agent unless it still owns active sessions.
// DELETE /api/agents/:id
func (h *AgentHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	agent, err := h.agents.Delete(c.Context(), id)
	if err != nil {
		return agentError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Agent deleted successfully",
		"agent":   agent,
	})
}

func agentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrAgentNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Agent not found"})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.Status(400).JSON(fiber.Map{"error": "Email already registered"})
	case errors.Is(err, repository.ErrAgentHasSessions):
		return c.Status(409).JSON(fiber.Map{"error": "Cannot delete agent with active chat sessions"})
	default:
		log.Printf("[Agent] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
