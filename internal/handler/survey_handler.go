package handler

import (
	"errors"
	"log"
	"strconv"

	"livechat-backend/internal/model"
	"livechat-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type SurveyHandler struct {
	surveys *repository.SurveyRepository
}

func NewSurveyHandler(surveys *repository.SurveyRepository) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// Submit records a post-chat survey. Widget-facing, no auth.
// POST /api/surveys/submit
func (h *SurveyHandler) Submit(c *fiber.Ctx) error {
	var req model.SubmitSurveyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" || req.ProblemSolved == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Session ID and problem_solved are required"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.Status(400).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}

	id, err := h.surveys.Insert(c.Context(), &req)
	if err != nil {
		return surveyError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"success":   true,
		"survey_id": id,
		"message":   "Survey submitted successfully",
	})
}

// List returns surveys with optional filters.
// GET /api/surveys/list?agent_id=&problem_solved=&limit=&offset=
func (h *SurveyHandler) List(c *fiber.Ctx) error {
	agentID, _ := strconv.Atoi(c.Query("agent_id"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filter := model.SurveyFilter{
		AgentID: agentID,
		Limit:   limit,
		Offset:  offset,
	}
	if raw := c.Query("problem_solved"); raw != "" {
		solved := raw == "true"
		filter.ProblemSolved = &solved
	}

	surveys, total, err := h.surveys.List(c.Context(), filter)
	if err != nil {
		log.Printf("[Survey] list: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	if surveys == nil {
		surveys = []*model.Survey{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"surveys": surveys,
		"pagination": model.Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		},
	})
}

// Stats aggregates satisfaction numbers.
// GET /api/surveys/stats?agent_id=&website_id=
func (h *SurveyHandler) Stats(c *fiber.Ctx) error {
	agentID, _ := strconv.Atoi(c.Query("agent_id"))
	websiteID, _ := strconv.Atoi(c.Query("website_id"))

	stats, err := h.surveys.Stats(c.Context(), agentID, websiteID)
	if err != nil {
		log.Printf("[Survey] stats: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

// Get returns a single survey.
// GET /api/surveys/:id
func (h *SurveyHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid survey ID"})
	}

	survey, err := h.surveys.GetByID(c.Context(), id)
	if err != nil {
		return surveyError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "survey": survey})
}

func surveyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, repository.ErrSurveyNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Survey not found"})
	default:
		log.Printf("[Survey] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
