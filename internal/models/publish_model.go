package models

import "time"

type PlatformOptions struct {
	PageID                     string `json:"pageId,omitempty"`
	InstagramBusinessAccountID string `json:"instagramBusinessAccountId,omitempty"`
	ImageURL                   string `json:"imageUrl,omitempty"`
}

type PublishRequest struct {
	Content   string   `json:"content"`
	Platforms []string `json:"platforms"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	// ScheduleAt asks the aggregator to post later. The direct publisher ignores
	// it; callers hand such requests to the scheduler instead.
	ScheduleAt   *time.Time        `json:"scheduleAt,omitempty"`
	AccessTokens map[string]string `json:"-"`
	Options      PlatformOptions   `json:"options"`
}

// PublishResult is the per-platform outcome of a publish. Success implies
// PostID is set and ErrorMessage is empty.
type PublishResult struct {
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	PostID       string `json:"postId,omitempty"`
	PostURL      string `json:"postUrl,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type PublishedPost struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PublishState tracks a single platform attempt.
type PublishState string

const (
	PublishNotStarted PublishState = "NOT_STARTED"
	PublishInFlight   PublishState = "IN_FLIGHT"
	PublishSucceeded  PublishState = "SUCCEEDED"
	PublishFailed     PublishState = "FAILED"
)

func SucceededResult(platform string, post *PublishedPost) PublishResult {
	return PublishResult{Platform: platform, Success: true, PostID: post.ID, PostURL: post.URL}
}

func FailedResult(platform, message string) PublishResult {
	if message == "" {
		message = "unknown error"
	}
	return PublishResult{Platform: platform, ErrorMessage: message}
}
