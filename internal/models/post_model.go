package models

import "time"

// ScheduledPost is a publish request parked until ScheduledAt. Access tokens
// are stored encrypted.
type ScheduledPost struct {
	ID           string            `db:"id" json:"id"`
	Platforms    []string          `db:"platforms" json:"platforms"`
	Content      string            `db:"content" json:"content"`
	MediaURLs    []string          `db:"media_urls" json:"mediaUrls,omitempty"`
	Options      PlatformOptions   `db:"options" json:"options"`
	AccessTokens map[string]string `db:"access_tokens" json:"-"`
	ScheduledAt  time.Time         `db:"scheduled_at" json:"scheduledTime"`
	Status       string            `db:"status" json:"status"`
	Results      []PublishResult   `db:"results" json:"results,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPosted     = "posted"
	PostStatusFailed     = "failed"
)

// StatusFromResults is posted when at least one platform accepted the post.
func StatusFromResults(results []PublishResult) string {
	for _, r := range results {
		if r.Success {
			return PostStatusPosted
		}
	}
	return PostStatusFailed
}
