package handler

import (
	"errors"
	"log"
	"strconv"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type WebsiteHandler struct {
	websites *repository.WebsiteRepository
}

func NewWebsiteHandler(websites *repository.WebsiteRepository) *WebsiteHandler {
	return &WebsiteHandler{websites: websites}
}

// Register creates a website entry and mints its API key.
// POST /api/websites/register
func (h *WebsiteHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterWebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Domain == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Name and domain are required"})
	}

	website, err := h.websites.Register(c.Context(), &req)
	if err != nil {
		return websiteError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "website": website})
}

// List returns all websites with session counts.
// GET /api/websites
func (h *WebsiteHandler) List(c *fiber.Ctx) error {
	websites, err := h.websites.List(c.Context())
	if err != nil {
		log.Printf("[Website] list: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	if websites == nil {
		websites = []*model.Website{}
	}
	return c.JSON(fiber.Map{"success": true, "websites": websites})
}

// Get returns one website.
// GET /api/websites/:id
func (h *WebsiteHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid website ID"})
	}

	website, err := h.websites.GetByID(c.Context(), id)
	if err != nil {
		return websiteError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "website": website})
}

// Update edits name or status.
// PUT /api/websites/:id
func (h *WebsiteHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid website ID"})
	}

	var req model.UpdateWebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	website, err := h.websites.Update(c.Context(), id, &req)
	if err != nil {
		return websiteError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "website": website})
}

// RegenerateKey rotates the API key.
// POST /api/websites/:id/regenerate-key
func (h *WebsiteHandler) RegenerateKey(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid website ID"})
	}

	website, err := h.websites.RegenerateKey(c.Context(), id)
	if err != nil {
		return websiteError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "website": website})
}

// Stats returns per-website session counters and a daily series.
// GET /api/websites/:id/stats?days=30
func (h *WebsiteHandler) Stats(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid website ID"})
	}
	days, _ := strconv.Atoi(c.Query("days", "30"))

	stats, daily, err := h.websites.Stats(c.Context(), id, days)
	if err != nil {
		return websiteError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"stats":          stats,
		"daily_sessions": daily,
	})
}

// Delete removes a website unless sessions still reference it.
// DELETE /api/websites/:id
func (h *WebsiteHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid website ID"})
	}

	website, err := h.websites.Delete(c.Context(), id)
	if err != nil {
		return websiteError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Website deleted successfully",
		"website": website,
	})
}

func websiteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrWebsiteNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Website not found"})
	case errors.Is(err, repository.ErrDomainTaken):
		return c.Status(400).JSON(fiber.Map{"error": "Domain already registered"})
	case errors.Is(err, repository.ErrWebsiteInUse):
		return c.Status(400).JSON(fiber.Map{"error": "Cannot delete website with existing chat sessions"})
	default:
		log.Printf("[Website] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
