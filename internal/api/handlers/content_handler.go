package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(s service.ContentService) *ContentHandler {
	return &ContentHandler{s: s}
}

func (h *ContentHandler) GenerateContent(c *fiber.Ctx) error {
	var body transfer.ContentRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := withTimeout(c, contentTimeout)
	defer cancel()

	results, err := h.s.GenerateContent(ctx, &body)
	if err != nil {
		if isBadRequest(err) {
			return badRequest(c, err.Error())
		}
		slog.Info("content generation failed", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to generate content",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"results":   results,
		"timestamp": timestamp(),
	})
}

func (h *ContentHandler) GenerateBatch(c *fiber.Ctx) error {
	var body transfer.ContentRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := withTimeout(c, batchTimeout)
	defer cancel()

	batch, err := h.s.GenerateBatch(ctx, &body)
	if err != nil {
		slog.Info("batch generation failed", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to generate batch content",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"posts":          batch.Posts,
		"totalGenerated": batch.TotalGenerated,
		"timestamp":      timestamp(),
	})
}
