package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

type PostHandler struct {
	publisher  service.PublishService
	aggregator service.Publisher
	schedule   service.ScheduleService
	enqueuer   queue.Enqueuer
}

// NewPostHandler wires the publish endpoints. enqueuer may be nil, in which
// case scheduled posts are only picked up by the due-post sweep.
func NewPostHandler(publisher service.PublishService, aggregator service.Publisher, schedule service.ScheduleService, enqueuer queue.Enqueuer) *PostHandler {
	return &PostHandler{
		publisher:  publisher,
		aggregator: aggregator,
		schedule:   schedule,
		enqueuer:   enqueuer,
	}
}

// CreatePost publishes to a single platform with a caller-supplied token.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var body transfer.SinglePostRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.Platform == "" || strings.TrimSpace(body.Content) == "" || body.AccessToken == "" {
		return badRequest(c, service.ErrMissingFields.Error())
	}

	ctx, cancel := withTimeout(c, contentTimeout)
	defer cancel()

	post, err := h.publisher.PublishOne(ctx, body.Platform, body.Content, body.AccessToken, models.PlatformOptions{
		PageID:                     body.PageID,
		InstagramBusinessAccountID: body.InstagramBusinessAccountID,
		ImageURL:                   body.ImageURL,
	})
	if err != nil {
		if isBadRequest(err) {
			return badRequest(c, err.Error())
		}
		slog.Info("post creation failed", "platform", body.Platform, "error", err.Error())
		return upstreamError(c, err, "Failed to create post. Please try again.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"platform":  body.Platform,
		"postId":    post.ID,
		"postUrl":   post.URL,
		"timestamp": timestamp(),
	})
}

// Publish fans the content out to several platforms. Partial failure is
// reported per platform with a 200. A scheduleAt on the direct path stores
// the post for the scheduler; the aggregator schedules it upstream.
func (h *PostHandler) Publish(c *fiber.Ctx) error {
	var body transfer.PublishBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.ScheduleAt != nil && !body.UseAggregator {
		return h.schedulePost(c, body.ToScheduleCreation())
	}

	var publisher service.Publisher = h.publisher
	if body.UseAggregator {
		publisher = h.aggregator
	}

	ctx, cancel := withTimeout(c, contentTimeout)
	defer cancel()

	results, err := publisher.Publish(ctx, body.ToRequest())
	if err != nil {
		if isBadRequest(err) {
			return badRequest(c, err.Error())
		}
		slog.Info("publish failed", "error", err.Error())
		return upstreamError(c, err, "Failed to publish post. Please try again.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   models.StatusFromResults(results) == models.PostStatusPosted,
		"results":   results,
		"timestamp": timestamp(),
	})
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	var body transfer.ScheduleCreation
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	return h.schedulePost(c, &body)
}

func (h *PostHandler) schedulePost(c *fiber.Ctx, body *transfer.ScheduleCreation) error {
	post, delay, err := h.schedule.Schedule(c.UserContext(), body)
	if err != nil {
		if isBadRequest(err) {
			return badRequest(c, err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to schedule post",
		})
	}

	if h.enqueuer != nil {
		if err := queue.EnqueuePost(h.enqueuer, queue.PublishPostPayload{PostID: post.ID}, delay); err != nil {
			slog.Info("unable to enqueue scheduled post", "post_id", post.ID, "error", err.Error())
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"postId":        post.ID,
		"scheduledTime": post.ScheduledAt,
		"message":       "Post scheduled successfully",
	})
}

func (h *PostHandler) ListScheduledPosts(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		post, err := h.schedule.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Scheduled post not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to load scheduled post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"post":    post,
		})
	}

	posts, err := h.schedule.List(c.UserContext())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"posts":   posts,
	})
}
