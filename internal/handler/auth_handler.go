package handler

import (
	"errors"
	"log"
	"strings"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"
	"livechat-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates an agent and returns a bearer token.
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	resp, err := h.auth.Login(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   resp.Token,
		"agent":   resp.Agent,
	})
}

// Logout flips the agent offline. A missing or invalid token is still a
// successful logout.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if err := h.auth.Logout(c.Context(), token); err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

// Verify checks the token and returns the agent it belongs to.
// GET /api/auth/verify
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Access token required"})
	}

	agent, err := h.auth.Verify(c.Context(), token)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "agent": agent})
}

// Me returns the authenticated agent. Runs behind the auth middleware.
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	agentID, _ := c.Locals("agent_id").(int)

	agent, err := h.auth.AgentByID(c.Context(), agentID)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "agent": agent})
}

// Register creates a new agent account.
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Name, email and password are required"})
	}

	agent, err := h.auth.Register(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "agent": agent})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.Status(403).JSON(fiber.Map{"error": "Invalid token"})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.Status(400).JSON(fiber.Map{"error": "Email already registered"})
	case errors.Is(err, repository.ErrAgentNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Agent not found"})
	default:
		log.Printf("[Auth] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
