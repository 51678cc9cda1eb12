package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/maheshrc27/crosspost/internal/models"
)

var (
	ErrEmptyContent        = errors.New("content is required")
	ErrNoPlatforms         = errors.New("at least one platform is required")
	ErrUnsupportedPlatform = errors.New("Unsupported platform")
	ErrScheduleInPast      = errors.New("Scheduled time must be in the future")
	ErrMissingAccessToken  = errors.New("access token is required")
)

// Codes carried by AuthError. They are redirected to the frontend verbatim.
const (
	AuthCodeDenied      = "access_denied"
	AuthCodeNoCode      = "no_code"
	AuthCodeFailed      = "auth_failed"
	AuthCodeUnsupported = "unsupported_platform"
)

// ConfigurationError is returned before any network call when required
// settings for a platform are absent.
type ConfigurationError struct {
	Platform string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	noun := "variable"
	if len(e.Missing) > 1 {
		noun = "variables"
	}
	return fmt.Sprintf("Missing required environment %s: %s", noun, strings.Join(e.Missing, ", "))
}

type OAuthExchangeError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *OAuthExchangeError) Error() string {
	return fmt.Sprintf("%s OAuth error: %s", platformLabel(e.Platform), e.Message)
}

type ProfileFetchError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("%s API error: %s", platformLabel(e.Platform), e.Message)
}

// PublishError reports a failed publish phase. Stage names the phase for
// two-phase platforms; ContainerID is set when an Instagram container was
// created but never published.
type PublishError struct {
	Platform    string
	Stage       string
	StatusCode  int
	Message     string
	ContainerID string
}

const (
	StageProfile   = "profile"
	StagePost      = "post"
	StageContainer = "container"
	StagePublish   = "publish"
)

func (e *PublishError) Error() string {
	switch {
	case e.Platform == models.PlatformInstagram && e.Stage == StageContainer:
		return "Instagram media creation error: " + e.Message
	case e.Platform == models.PlatformInstagram && e.Stage == StagePublish:
		return "Instagram publish error: " + e.Message
	}
	return fmt.Sprintf("%s API error: %s", platformLabel(e.Platform), e.Message)
}

type AggregatorError struct {
	StatusCode int
	Message    string
}

func (e *AggregatorError) Error() string {
	return "Ayrshare API Error: " + e.Message
}

// AuthError is the normalized outcome of a failed OAuth callback.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is a per-platform precondition failure.
type ValidationError struct {
	Platform string
	Message  string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidatePlatformOptions checks the options a platform needs before any
// network call is made.
func ValidatePlatformOptions(platform string, opts models.PlatformOptions) error {
	switch platform {
	case models.PlatformTwitter, models.PlatformLinkedIn:
		return nil
	case models.PlatformFacebook:
		if opts.PageID == "" {
			return &ValidationError{Platform: platform, Message: "Page ID required for Facebook posts"}
		}
		return nil
	case models.PlatformInstagram:
		if opts.InstagramBusinessAccountID == "" || opts.ImageURL == "" {
			return &ValidationError{Platform: platform, Message: "Instagram Business Account ID and image URL required for Instagram posts"}
		}
		return nil
	}
	return &ValidationError{Platform: platform, Message: ErrUnsupportedPlatform.Error()}
}

// StatusFromError maps an upstream failure to the HTTP status returned to
// API callers. Matching is on message substrings.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "rate limit"):
		return http.StatusTooManyRequests
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid token"):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func platformLabel(platform string) string {
	switch platform {
	case models.PlatformTwitter:
		return "Twitter"
	case models.PlatformLinkedIn:
		return "LinkedIn"
	case models.PlatformFacebook:
		return "Facebook"
	case models.PlatformInstagram:
		return "Instagram"
	}
	return platform
}
