package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "Unable to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "Unable to read file")
	}

	url, err := h.s.Upload(c.UserContext(), data)
	if err != nil {
		if isBadRequest(err) {
			return badRequest(c, err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload media",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"url":     url,
	})
}
