package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
)

const (
	contentTimeout = 30 * time.Second
	batchTimeout   = 60 * time.Second
)

// withTimeout derives a request-scoped context with an overall budget.
func withTimeout(c *fiber.Ctx, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), d)
}

// isBadRequest reports errors caused by the caller's input.
func isBadRequest(err error) bool {
	var validation *service.ValidationError
	var configuration *service.ConfigurationError
	switch {
	case errors.As(err, &validation), errors.As(err, &configuration):
		return true
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrNoPlatforms),
		errors.Is(err, service.ErrUnsupportedPlatform),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrScheduleInPast),
		errors.Is(err, service.ErrMissingAccessToken),
		errors.Is(err, service.ErrUnsupportedMedia):
		return true
	}
	return false
}

// upstreamError answers a failed provider call with the status its message
// maps to and a fixed user-facing text.
func upstreamError(c *fiber.Ctx, err error, fallback string) error {
	status := service.StatusFromError(err)
	msg := fallback
	switch status {
	case fiber.StatusTooManyRequests:
		msg = "Rate limit exceeded. Please try again later."
	case fiber.StatusUnauthorized:
		msg = "Authentication failed. Please reconnect your account."
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
