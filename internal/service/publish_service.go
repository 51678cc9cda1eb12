package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
)

// Publisher is implemented by both the direct fan-out and the aggregator path.
type Publisher interface {
	Publish(ctx context.Context, req *models.PublishRequest) ([]models.PublishResult, error)
}

// TokenSource resolves a stored access token when a request carries none.
type TokenSource interface {
	AccessToken(ctx context.Context, platform, accountID string) (string, error)
}

type PublishService interface {
	Publisher
	PublishOne(ctx context.Context, platform, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error)
}

const publishConcurrency = 10

type publishService struct {
	cfg       *config.Config
	newClient ClientFactory
	tokens    TokenSource
}

// NewPublishService builds the direct publisher. tokens may be nil, in which
// case every platform must carry its own access token.
func NewPublishService(cfg *config.Config, newClient ClientFactory, tokens TokenSource) PublishService {
	return &publishService{cfg: cfg, newClient: newClient, tokens: tokens}
}

func (s *publishService) PublishOne(ctx context.Context, platform, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error) {
	platform = normalizePlatform(platform)
	if !models.IsSupportedPlatform(platform) {
		return nil, ErrUnsupportedPlatform
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if err := ValidatePlatformOptions(platform, opts); err != nil {
		return nil, err
	}

	client, err := s.newClient(platform, credentialsFor(s.cfg, platform))
	if err != nil {
		return nil, err
	}
	return client.Publish(ctx, content, accessToken, opts)
}

// Publish fans req out to every platform and waits for all of them. The
// result slice has one entry per platform in request order.
func (s *publishService) Publish(ctx context.Context, req *models.PublishRequest) ([]models.PublishResult, error) {
	platforms, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	if opts.ImageURL == "" && len(req.MediaURLs) > 0 {
		opts.ImageURL = req.MediaURLs[0]
	}

	tokens := normalizeTokens(req.AccessTokens)
	results := make([]models.PublishResult, len(platforms))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, publishConcurrency)

	for i, platform := range platforms {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, platform string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = s.attempt(ctx, platform, req.Content, tokens[platform], opts)
		}(i, platform)
	}

	wg.Wait()
	return results, nil
}

func (s *publishService) attempt(ctx context.Context, platform, content, accessToken string, opts models.PlatformOptions) (result models.PublishResult) {
	logState(platform, models.PublishNotStarted, nil)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while publishing: %v", r)
			logState(platform, models.PublishFailed, err)
			result = models.FailedResult(platform, err.Error())
		}
	}()

	if err := ValidatePlatformOptions(platform, opts); err != nil {
		logState(platform, models.PublishFailed, err)
		return models.FailedResult(platform, err.Error())
	}

	if accessToken == "" && s.tokens != nil {
		accountID := ""
		if platform == models.PlatformFacebook {
			accountID = opts.PageID
		}
		token, err := s.tokens.AccessToken(ctx, platform, accountID)
		if err != nil {
			logState(platform, models.PublishFailed, err)
			return models.FailedResult(platform, err.Error())
		}
		accessToken = token
	}
	if accessToken == "" {
		logState(platform, models.PublishFailed, ErrMissingAccessToken)
		return models.FailedResult(platform, ErrMissingAccessToken.Error())
	}

	client, err := s.newClient(platform, credentialsFor(s.cfg, platform))
	if err != nil {
		logState(platform, models.PublishFailed, err)
		return models.FailedResult(platform, err.Error())
	}

	logState(platform, models.PublishInFlight, nil)
	post, err := client.Publish(ctx, content, accessToken, opts)
	if err != nil {
		logState(platform, models.PublishFailed, err)
		return models.FailedResult(platform, err.Error())
	}
	if post == nil || post.ID == "" {
		err := fmt.Errorf("%s returned no post id", platformLabel(platform))
		logState(platform, models.PublishFailed, err)
		return models.FailedResult(platform, err.Error())
	}

	logState(platform, models.PublishSucceeded, nil)
	return models.SucceededResult(platform, post)
}

func logState(platform string, state models.PublishState, err error) {
	if err != nil {
		slog.Info("publish attempt", "platform", platform, "state", state, "error", err.Error())
		return
	}
	slog.Debug("publish attempt", "platform", platform, "state", state)
}

// validateRequest applies the checks that fail a whole request and returns
// the normalized platform list.
func validateRequest(req *models.PublishRequest) ([]string, error) {
	if req == nil || strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}
	platforms := uniquePlatforms(req.Platforms)
	if len(platforms) == 0 {
		return nil, ErrNoPlatforms
	}
	return platforms, nil
}

// NormalizePlatforms trims and lower-cases platform names and drops repeats,
// keeping the first occurrence.
func NormalizePlatforms(platforms []string) []string {
	return uniquePlatforms(platforms)
}

// normalizeTokens keys tokens by normalized platform name. Empty tokens are
// dropped so a stored account can still be used.
func normalizeTokens(tokens map[string]string) map[string]string {
	out := make(map[string]string, len(tokens))
	for p, token := range tokens {
		if token != "" {
			out[normalizePlatform(p)] = token
		}
	}
	return out
}

func uniquePlatforms(platforms []string) []string {
	seen := make(map[string]bool, len(platforms))
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		p = normalizePlatform(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// FailedResults marks every platform as failed with err.
func FailedResults(platforms []string, err error) []models.PublishResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	results := make([]models.PublishResult, 0, len(platforms))
	for _, p := range uniquePlatforms(platforms) {
		results = append(results, models.FailedResult(p, msg))
	}
	return results
}
