package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
)

// PostPublisher publishes one scheduled post by id.
type PostPublisher interface {
	PublishScheduledPost(ctx context.Context, postID string) error
}

// DuePostsJob sweeps the store for posts whose time has come. It runs
// alongside the Redis queue; posts the queue already claimed are skipped.
type DuePostsJob struct {
	posts     repository.ScheduledPostRepository
	publisher PostPublisher
	now       func() time.Time
}

func NewDuePostsJob(posts repository.ScheduledPostRepository, publisher PostPublisher) *DuePostsJob {
	return &DuePostsJob{posts: posts, publisher: publisher, now: time.Now}
}

func (j *DuePostsJob) PublishDue() {
	ctx := context.Background()

	due, err := j.posts.ListDue(ctx, j.now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, post := range due {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.ScheduledPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.publisher.PublishScheduledPost(ctx, post.ID); err != nil {
				slog.Info("Unable to publish scheduled post", "post_id", post.ID, "error", err.Error())
			}
		}(post)
	}

	wg.Wait()
}
