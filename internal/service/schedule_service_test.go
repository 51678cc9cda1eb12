package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestScheduleService(now time.Time) (*scheduleService, repository.ScheduledPostRepository) {
	posts := repository.NewMemoryPostRepository()
	return &scheduleService{posts: posts, secretKey: []byte(testSecret), now: func() time.Time { return now }}, posts
}

func TestScheduleStoresEncryptedPost(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc, posts := newTestScheduleService(now)

	post, delay, err := svc.Schedule(context.Background(), &transfer.ScheduleCreation{
		Platform:      "twitter",
		Content:       "Launch day",
		ScheduledTime: "2026-10-15T10:30:00Z",
		AccessToken:   "tw-token",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if delay != 90*time.Minute {
		t.Errorf("delay = %v", delay)
	}
	if post.ID == "" || post.Status != models.PostStatusScheduled {
		t.Errorf("unexpected post %+v", post)
	}

	stored, err := posts.GetByID(context.Background(), post.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v %v", stored, err)
	}
	if stored.AccessTokens["twitter"] == "tw-token" {
		t.Fatal("token stored in plain text")
	}
	plain, err := utils.Decrypt(stored.AccessTokens["twitter"], []byte(testSecret))
	if err != nil || plain != "tw-token" {
		t.Errorf("decrypted token = %q, %v", plain, err)
	}
}

func TestScheduleAcceptsDatetimeLocal(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestScheduleService(now)

	post, _, err := svc.Schedule(context.Background(), &transfer.ScheduleCreation{
		Platforms:     []string{"linkedin"},
		Content:       "Hello",
		ScheduledTime: "2026-10-16T08:15",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if !post.ScheduledAt.Equal(time.Date(2026, 10, 16, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("scheduledAt = %v", post.ScheduledAt)
	}
}

func TestScheduleValidation(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestScheduleService(now)

	tests := []struct {
		name string
		req  transfer.ScheduleCreation
		want error
	}{
		{"missing content", transfer.ScheduleCreation{Platform: "twitter", ScheduledTime: "2026-10-16T08:15"}, ErrMissingFields},
		{"missing platform", transfer.ScheduleCreation{Content: "x", ScheduledTime: "2026-10-16T08:15"}, ErrMissingFields},
		{"missing time", transfer.ScheduleCreation{Platform: "twitter", Content: "x"}, ErrMissingFields},
		{"past time", transfer.ScheduleCreation{Platform: "twitter", Content: "x", ScheduledTime: "2026-10-15T08:59:00Z"}, ErrScheduleInPast},
		{"now", transfer.ScheduleCreation{Platform: "twitter", Content: "x", ScheduledTime: "2026-10-15T09:00:00Z"}, ErrScheduleInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Schedule(context.Background(), &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	_, _, err := svc.Schedule(context.Background(), &transfer.ScheduleCreation{Platform: "twitter", Content: "x", ScheduledTime: "tomorrow"})
	if err == nil {
		t.Error("expected unparseable time to fail")
	}

	var validation *ValidationError
	_, _, err = svc.Schedule(context.Background(), &transfer.ScheduleCreation{Platform: "facebook", Content: "x", ScheduledTime: "2026-10-16T08:15"})
	if !errors.As(err, &validation) {
		t.Errorf("expected ValidationError for facebook without page, got %v", err)
	}
}

func TestScheduleSingleTokenNeedsSinglePlatform(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestScheduleService(now)

	post, _, err := svc.Schedule(context.Background(), &transfer.ScheduleCreation{
		Platforms:     []string{"twitter", "linkedin"},
		Content:       "x",
		ScheduledTime: "2026-10-16T08:15",
		AccessToken:   "ambiguous",
		AccessTokens:  map[string]string{"LinkedIn": "li-token"},
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, ok := post.AccessTokens["twitter"]; ok {
		t.Error("single token should not be applied to several platforms")
	}
	if _, ok := post.AccessTokens["linkedin"]; !ok {
		t.Error("per-platform token should be normalized and kept")
	}
}

func TestScheduleGetAndList(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestScheduleService(now)

	post, _, err := svc.Schedule(context.Background(), &transfer.ScheduleCreation{
		Platform: "twitter", Content: "x", ScheduledTime: "2026-10-16T08:15",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	got, err := svc.Get(context.Background(), post.ID)
	if err != nil || got.ID != post.ID {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := svc.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}
}
