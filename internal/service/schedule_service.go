package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

var ErrMissingFields = errors.New("Missing required fields")

// Layouts accepted for scheduledTime. The second is what a datetime-local
// input submits.
var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

type ScheduleService interface {
	// Schedule stores the post and returns it with the delay until it is due.
	Schedule(ctx context.Context, req *transfer.ScheduleCreation) (*models.ScheduledPost, time.Duration, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	Get(ctx context.Context, id string) (*models.ScheduledPost, error)
}

type scheduleService struct {
	posts     repository.ScheduledPostRepository
	secretKey []byte
	now       func() time.Time
}

func NewScheduleService(posts repository.ScheduledPostRepository, secretKey string) ScheduleService {
	return &scheduleService{posts: posts, secretKey: []byte(secretKey), now: time.Now}
}

func (s *scheduleService) Schedule(ctx context.Context, req *transfer.ScheduleCreation) (*models.ScheduledPost, time.Duration, error) {
	platforms := req.Platforms
	if len(platforms) == 0 && req.Platform != "" {
		platforms = []string{req.Platform}
	}
	platforms = uniquePlatforms(platforms)

	if strings.TrimSpace(req.Content) == "" || len(platforms) == 0 || req.ScheduledTime == "" {
		return nil, 0, ErrMissingFields
	}

	scheduledAt, err := parseScheduleTime(req.ScheduledTime)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	if !scheduledAt.After(now) {
		return nil, 0, ErrScheduleInPast
	}

	opts := models.PlatformOptions{
		PageID:                     req.PageID,
		InstagramBusinessAccountID: req.InstagramBusinessAccountID,
		ImageURL:                   req.ImageURL,
	}
	if opts.ImageURL == "" && len(req.MediaURLs) > 0 {
		opts.ImageURL = req.MediaURLs[0]
	}
	for _, p := range platforms {
		if err := ValidatePlatformOptions(p, opts); err != nil {
			return nil, 0, err
		}
	}

	tokens := normalizeTokens(req.AccessTokens)
	if req.AccessToken != "" && len(platforms) == 1 {
		tokens[platforms[0]] = req.AccessToken
	}
	encrypted, err := utils.EncryptTokens(tokens, s.secretKey)
	if err != nil {
		return nil, 0, err
	}

	post := &models.ScheduledPost{
		ID:           uuid.NewString(),
		Platforms:    platforms,
		Content:      req.Content,
		MediaURLs:    req.MediaURLs,
		Options:      opts,
		AccessTokens: encrypted,
		ScheduledAt:  scheduledAt,
		Status:       models.PostStatusScheduled,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	return post, scheduledAt.Sub(now), nil
}

func (s *scheduleService) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	return s.posts.List(ctx)
}

func (s *scheduleService) Get(ctx context.Context, id string) (*models.ScheduledPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, repository.ErrNotFound
	}
	return post, nil
}

func parseScheduleTime(value string) (time.Time, error) {
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("scheduledTime must be an RFC 3339 timestamp")
}
