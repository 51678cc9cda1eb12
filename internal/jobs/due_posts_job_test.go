package job

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
)

type recordingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPublisher) PublishScheduledPost(ctx context.Context, postID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, postID)
	return nil
}

func TestPublishDuePicksOnlyDuePosts(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	posts := repository.NewMemoryPostRepository()

	seed := []struct {
		id     string
		at     time.Time
		status string
	}{
		{"due-1", now.Add(-time.Hour), models.PostStatusScheduled},
		{"due-2", now, models.PostStatusScheduled},
		{"later", now.Add(time.Minute), models.PostStatusScheduled},
		{"done", now.Add(-time.Hour), models.PostStatusPosted},
	}
	for _, s := range seed {
		if err := posts.Create(context.Background(), &models.ScheduledPost{ID: s.id, ScheduledAt: s.at, Status: s.status}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	publisher := &recordingPublisher{}
	job := NewDuePostsJob(posts, publisher)
	job.now = func() time.Time { return now }

	job.PublishDue()

	sort.Strings(publisher.ids)
	if len(publisher.ids) != 2 || publisher.ids[0] != "due-1" || publisher.ids[1] != "due-2" {
		t.Errorf("published %v", publisher.ids)
	}
}
