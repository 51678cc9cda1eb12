package service

import (
	"context"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
)

// PlatformClient is the capability set shared by every direct integration.
// Clients hold only their credentials and an HTTP client.
type PlatformClient interface {
	Platform() string
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error)
	FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error)
	Publish(ctx context.Context, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error)
}

// TokenRefresher is implemented by platforms that issue refresh tokens.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenSet, error)
}

// PageLister is implemented by platforms whose posting target is a page
// rather than the authenticated user.
type PageLister interface {
	FetchPages(ctx context.Context, accessToken string) ([]models.FacebookPage, []byte, error)
}

// ClientFactory builds a fresh client per request.
type ClientFactory func(platform string, creds models.PlatformCredentials) (PlatformClient, error)

func NewClientFactory(httpClient *http.Client) ClientFactory {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return func(platform string, creds models.PlatformCredentials) (PlatformClient, error) {
		switch platform {
		case models.PlatformTwitter:
			return NewTwitterClient(creds, httpClient), nil
		case models.PlatformLinkedIn:
			return NewLinkedInClient(creds, httpClient), nil
		case models.PlatformFacebook:
			return NewFacebookClient(creds, httpClient), nil
		case models.PlatformInstagram:
			return NewInstagramClient(creds, httpClient), nil
		}
		return nil, ErrUnsupportedPlatform
	}
}
