package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	return q.PublishScheduledPost(ctx, payload.PostID)
}

// PublishScheduledPost publishes a due post once. A post that is missing or
// already claimed is skipped.
func (q *Queue) PublishScheduledPost(ctx context.Context, postID string) error {
	claimed, err := q.posts.Claim(ctx, postID)
	if err != nil {
		return err
	}
	if !claimed {
		slog.Info("scheduled post already claimed", "post_id", postID)
		return nil
	}

	post, err := q.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return nil
	}

	results := q.publish(ctx, post)
	status := models.StatusFromResults(results)

	if err := q.posts.UpdateStatus(ctx, postID, status, results); err != nil {
		slog.Info(err.Error(), "post_id", postID)
		return err
	}

	slog.Info("scheduled post processed", "post_id", postID, "status", status)
	return nil
}

func (q *Queue) publish(ctx context.Context, post *models.ScheduledPost) []models.PublishResult {
	tokens, err := utils.DecryptTokens(post.AccessTokens, q.secretKey)
	if err != nil {
		return service.FailedResults(post.Platforms, fmt.Errorf("decrypt access tokens: %w", err))
	}

	results, err := q.publisher.Publish(ctx, &models.PublishRequest{
		Content:      post.Content,
		Platforms:    post.Platforms,
		MediaURLs:    post.MediaURLs,
		AccessTokens: tokens,
		Options:      post.Options,
	})
	if err != nil {
		slog.Info(err.Error(), "post_id", post.ID)
		return service.FailedResults(post.Platforms, err)
	}
	return results
}
