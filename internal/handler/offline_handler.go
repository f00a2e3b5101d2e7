package handler

import (
	"log"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type OfflineHandler struct {
	offline *repository.OfflineMessageRepository
}

func NewOfflineHandler(offline *repository.OfflineMessageRepository) *OfflineHandler {
	return &OfflineHandler{offline: offline}
}

// Submit stores a message left while no agent was online. Widget-facing.
// POST /api/offline-messages
func (h *OfflineHandler) Submit(c *fiber.Ctx) error {
	var req model.OfflineMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.WebsiteID == 0 || req.CustomerEmail == "" || req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Website ID, email and message are required"})
	}

	msg, err := h.offline.Insert(c.Context(), &req)
	if err != nil {
		log.Printf("[Offline] insert: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "message": msg})
}

// List returns offline messages for the dashboard.
// GET /api/offline-messages?unhandled=true
func (h *OfflineHandler) List(c *fiber.Ctx) error {
	onlyUnhandled := c.Query("unhandled") == "true"

	messages, err := h.offline.List(c.Context(), onlyUnhandled)
	if err != nil {
		log.Printf("[Offline] list: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	if messages == nil {
		messages = []*model.OfflineMessage{}
	}
	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

// MarkHandled flags a message as dealt with.
// PUT /api/offline-messages/:id/handled
func (h *OfflineHandler) MarkHandled(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	if err := h.offline.MarkHandled(c.Context(), id); err != nil {
		log.Printf("[Offline] mark handled: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Message marked as handled"})
}
