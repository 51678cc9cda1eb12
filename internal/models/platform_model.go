package models

import (
	"encoding/json"
	"time"
)

const (
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

// SupportedPlatforms are the platforms with a direct OAuth and publish integration.
var SupportedPlatforms = []string{PlatformTwitter, PlatformLinkedIn, PlatformFacebook, PlatformInstagram}

func IsSupportedPlatform(platform string) bool {
	for _, p := range SupportedPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

type PlatformCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type AuthorizationRequest struct {
	Platform string `json:"platform"`
	State    string `json:"state"`
	URL      string `json:"url"`
}

// TokenSet is what a code exchange yields. ExpiresAt is epoch milliseconds.
type TokenSet struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// NewTokenSet stamps the expiry relative to now.
func NewTokenSet(accessToken, refreshToken string, expiresIn time.Duration) *TokenSet {
	return &TokenSet{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(expiresIn).UnixMilli(),
	}
}

func (t *TokenSet) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

type UserProfile struct {
	ID       string          `json:"id"`
	Username string          `json:"username,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// FacebookPage is a page the authenticated user can manage.
type FacebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Category    string `json:"category,omitempty"`
}

// Connection is the outcome of a completed OAuth callback.
type Connection struct {
	Platform string         `json:"platform"`
	Profile  UserProfile    `json:"profile"`
	Tokens   TokenSet       `json:"tokens"`
	Pages    []FacebookPage `json:"pages,omitempty"`
}
