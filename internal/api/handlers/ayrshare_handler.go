package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

type AyrshareHandler struct {
	ayrshare service.AyrshareService
}

func NewAyrshareHandler(ayrshare service.AyrshareService) *AyrshareHandler {
	return &AyrshareHandler{ayrshare: ayrshare}
}

func (h *AyrshareHandler) CreatePost(c *fiber.Ctx) error {
	var body transfer.AyrsharePostBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	platforms := service.NormalizePlatforms(body.Platforms)
	if strings.TrimSpace(body.Content) == "" || len(platforms) == 0 {
		return badRequest(c, "Content and platforms are required")
	}

	req := &models.PublishRequest{
		Content:   body.Content,
		MediaURLs: body.MediaURLs,
		Options: models.PlatformOptions{
			PageID:   body.FacebookPageID,
			ImageURL: body.InstagramImageURL,
		},
	}
	post := service.BuildAyrsharePost(req, platforms)
	post.ScheduleDate = body.ScheduleDate

	ctx, cancel := withTimeout(c, contentTimeout)
	defer cancel()

	result, err := h.ayrshare.CreatePost(ctx, post)
	if err != nil {
		slog.Info("ayrshare post failed", "error", err.Error())
		return aggregatorError(c, err, "Failed to create post. Please try again.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"postId":    result.ID,
		"postIds":   result.PostIDs,
		"postUrls":  result.PostURLs,
		"errors":    result.Errors,
		"results":   service.ResultsFromAyrshare(platforms, result),
		"timestamp": timestamp(),
	})
}

func (h *AyrshareHandler) ListProfiles(c *fiber.Ctx) error {
	profiles, err := h.ayrshare.ListProfiles(c.UserContext())
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to fetch profiles")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"profiles": profiles,
	})
}

func (h *AyrshareHandler) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "No file provided")
	}
	defer file.Close()

	url, err := h.ayrshare.UploadMedia(c.UserContext(), fileHeader.Filename, file)
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to upload media")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"url":     url,
	})
}

// Analytics reads platforms as a comma separated list and lastDays as a
// day count; both are optional.
func (h *AyrshareHandler) Analytics(c *fiber.Ctx) error {
	var platforms []string
	if raw := c.Query("platforms"); raw != "" {
		platforms = strings.Split(raw, ",")
	}

	analytics, err := h.ayrshare.GetAnalytics(c.UserContext(), platforms, c.QueryInt("lastDays", 0))
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to fetch analytics")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"analytics": analytics,
	})
}

func (h *AyrshareHandler) History(c *fiber.Ctx) error {
	history, err := h.ayrshare.GetHistory(c.UserContext(), c.QueryInt("lastDays", 0), c.Query("platform"))
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to fetch history")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"history": history,
	})
}

func (h *AyrshareHandler) PostAnalytics(c *fiber.Ctx) error {
	analytics, err := h.ayrshare.GetPostAnalytics(c.UserContext(), c.Params("id"))
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to fetch analytics")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"analytics": analytics,
	})
}

func (h *AyrshareHandler) DeletePost(c *fiber.Ctx) error {
	result, err := h.ayrshare.DeletePost(c.UserContext(), c.Params("id"))
	if err != nil {
		slog.Info(err.Error())
		return aggregatorError(c, err, "Failed to delete post")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

// aggregatorError only treats "unauthorized" as a credential failure; the
// direct path also accepts "invalid token".
func aggregatorError(c *fiber.Ctx, err error, fallback string) error {
	if isBadRequest(err) {
		return badRequest(c, err.Error())
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "rate limit"):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Rate limit exceeded. Please try again later.",
		})
	case strings.Contains(msg, "unauthorized"):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid API key or unauthorized access.",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}

