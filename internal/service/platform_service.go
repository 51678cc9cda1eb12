package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
)

// PlatformService runs the OAuth connect flow for the direct integrations.
type PlatformService interface {
	BeginAuth(ctx context.Context, platform string) (*models.AuthorizationRequest, error)
	CompleteAuth(ctx context.Context, platform, code, state, providerError string) (*models.Connection, error)
	RefreshToken(ctx context.Context, platform, refreshToken string) (*models.TokenSet, error)
}

type platformService struct {
	cfg       *config.Config
	newClient ClientFactory
}

func NewPlatformService(cfg *config.Config, newClient ClientFactory) PlatformService {
	return &platformService{cfg: cfg, newClient: newClient}
}

func (s *platformService) BeginAuth(ctx context.Context, platform string) (*models.AuthorizationRequest, error) {
	platform = normalizePlatform(platform)
	if !models.IsSupportedPlatform(platform) {
		return nil, ErrUnsupportedPlatform
	}

	if missing := s.cfg.MissingSettings(platform); len(missing) > 0 {
		err := &ConfigurationError{Platform: platform, Missing: missing}
		slog.Info(err.Error(), "platform", platform)
		return nil, err
	}

	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString()
	return &models.AuthorizationRequest{
		Platform: platform,
		State:    state,
		URL:      client.AuthorizationURL(state),
	}, nil
}

// CompleteAuth exchanges the callback code and loads the profile. Every
// failure comes back as an *AuthError carrying a redirect-safe code.
func (s *platformService) CompleteAuth(ctx context.Context, platform, code, state, providerError string) (*models.Connection, error) {
	if providerError != "" {
		return nil, &AuthError{Code: providerError}
	}
	if code == "" {
		return nil, &AuthError{Code: AuthCodeNoCode}
	}

	platform = normalizePlatform(platform)
	if !models.IsSupportedPlatform(platform) {
		return nil, &AuthError{Code: AuthCodeUnsupported, Err: ErrUnsupportedPlatform}
	}

	conn, err := s.connect(ctx, platform, code)
	if err != nil {
		slog.Error("oauth callback failed", "platform", platform, "state", state, "error", err)
		return nil, &AuthError{Code: AuthCodeFailed, Err: err}
	}
	return conn, nil
}

func (s *platformService) connect(ctx context.Context, platform, code string) (*models.Connection, error) {
	if missing := s.cfg.MissingSettings(platform); len(missing) > 0 {
		return nil, &ConfigurationError{Platform: platform, Missing: missing}
	}

	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}

	tokens, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	conn := &models.Connection{Platform: platform, Tokens: *tokens}

	// Facebook posts target pages, so the connection is identified by the
	// first page the user manages.
	if lister, ok := client.(PageLister); ok {
		pages, raw, err := lister.FetchPages(ctx, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			return nil, errors.New("no manageable Facebook pages")
		}
		conn.Pages = pages
		conn.Profile = models.UserProfile{ID: pages[0].ID, Username: pages[0].Name, Raw: raw}
		return conn, nil
	}

	profile, err := client.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%s profile has no id", platform)
	}
	conn.Profile = *profile
	return conn, nil
}

func (s *platformService) RefreshToken(ctx context.Context, platform, refreshToken string) (*models.TokenSet, error) {
	platform = normalizePlatform(platform)
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}

	client, err := s.client(platform)
	if err != nil {
		return nil, err
	}

	refresher, ok := client.(TokenRefresher)
	if !ok {
		return nil, fmt.Errorf("%s does not support token refresh", platform)
	}
	return refresher.RefreshToken(ctx, refreshToken)
}

func (s *platformService) client(platform string) (PlatformClient, error) {
	return s.newClient(platform, credentialsFor(s.cfg, platform))
}

func credentialsFor(cfg *config.Config, platform string) models.PlatformCredentials {
	app, _ := cfg.App(platform)
	return models.PlatformCredentials{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURI:  cfg.RedirectURI(platform),
	}
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
