package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

func TestMemoryPostRepositoryClaimOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	post := &models.ScheduledPost{
		ID:          "p1",
		Platforms:   []string{"twitter"},
		Content:     "hello",
		ScheduledAt: time.Now().Add(-time.Minute),
		Status:      models.PostStatusScheduled,
	}
	if err := repo.Create(ctx, post); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var claimed int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Claim(ctx, "p1")
			if err != nil {
				t.Errorf("Claim: %v", err)
			}
			if ok {
				atomic.AddInt32(&claimed, 1)
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Fatalf("expected exactly one claim, got %d", claimed)
	}

	got, err := repo.GetByID(ctx, "p1")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v %v", got, err)
	}
	if got.Status != models.PostStatusPublishing {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestMemoryPostRepositoryListDue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()
	now := time.Now()

	for _, p := range []*models.ScheduledPost{
		{ID: "later", ScheduledAt: now.Add(time.Hour), Status: models.PostStatusScheduled},
		{ID: "due2", ScheduledAt: now.Add(-time.Minute), Status: models.PostStatusScheduled},
		{ID: "due1", ScheduledAt: now.Add(-time.Hour), Status: models.PostStatusScheduled},
		{ID: "done", ScheduledAt: now.Add(-time.Hour), Status: models.PostStatusPosted},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	due, err := repo.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 || due[0].ID != "due1" || due[1].ID != "due2" {
		t.Fatalf("unexpected due posts: %+v", due)
	}

	all, _ := repo.List(ctx)
	if len(all) != 4 || all[0].ID != "later" {
		t.Fatalf("List should keep insertion order, got %d posts", len(all))
	}
}

func TestMemoryPostRepositoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepository()

	if err := repo.UpdateStatus(ctx, "missing", models.PostStatusFailed, nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = repo.Create(ctx, &models.ScheduledPost{ID: "p", Status: models.PostStatusPublishing})
	results := []models.PublishResult{{Platform: "twitter", Success: true, PostID: "1"}}
	if err := repo.UpdateStatus(ctx, "p", models.PostStatusPosted, results); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := repo.GetByID(ctx, "p")
	if got.Status != models.PostStatusPosted || len(got.Results) != 1 {
		t.Fatalf("unexpected post %+v", got)
	}
}

func TestMemorySocialAccountRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySocialAccountRepository()

	id1, err := repo.Upsert(ctx, &models.SocialAccount{Platform: "facebook", AccountID: "page-1", AccessToken: "a"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	id2, _ := repo.Upsert(ctx, &models.SocialAccount{Platform: "facebook", AccountID: "page-1", AccessToken: "b"})
	if id1 != id2 {
		t.Fatalf("upsert of the same account created a new row: %d vs %d", id1, id2)
	}
	_, _ = repo.Upsert(ctx, &models.SocialAccount{Platform: "facebook", AccountID: "page-2", AccessToken: "c"})

	got, _ := repo.GetByPlatform(ctx, "facebook", "page-1")
	if got == nil || got.AccessToken != "b" {
		t.Fatalf("unexpected account %+v", got)
	}

	if err := repo.SetToken(ctx, id1, &models.SocialAccount{AccessToken: "d"}); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, _ = repo.GetByID(ctx, id1)
	if got.AccessToken != "d" {
		t.Fatalf("token not updated: %+v", got)
	}

	_ = repo.Remove(ctx, id1)
	if got, _ := repo.GetByID(ctx, id1); got != nil {
		t.Fatal("account should be removed")
	}
	if list, _ := repo.List(ctx); len(list) != 1 {
		t.Fatalf("expected one remaining account, got %d", len(list))
	}
}

func TestMemoryStateRepositoryConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository()

	if err := repo.Save(ctx, "s1", "twitter", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}

	platform, ok, err := repo.Consume(ctx, "s1")
	if err != nil || !ok || platform != "twitter" {
		t.Fatalf("Consume = %q %v %v", platform, ok, err)
	}
	if _, ok, _ := repo.Consume(ctx, "s1"); ok {
		t.Fatal("state accepted twice")
	}
}

func TestMemoryStateRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository().(*memoryStateRepository)

	now := time.Now()
	repo.now = func() time.Time { return now }
	_ = repo.Save(ctx, "s1", "linkedin", time.Minute)

	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok, _ := repo.Consume(ctx, "s1"); ok {
		t.Fatal("expired state accepted")
	}
}

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions("localhost:6379")
	if err != nil || opt.Addr != "localhost:6379" {
		t.Fatalf("bare address: %+v %v", opt, err)
	}
	opt, err = RedisOptions("redis://:secret@cache:6380/2")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opt.Addr != "cache:6380" || opt.DB != 2 || opt.Password != "secret" {
		t.Fatalf("unexpected options %+v", opt)
	}
}
