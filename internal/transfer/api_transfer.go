package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/crosspost/internal/models"
)

// SinglePostRequest is the body of POST /api/post.
type SinglePostRequest struct {
	Platform                   string `json:"platform"`
	Content                    string `json:"content"`
	AccessToken                string `json:"accessToken"`
	PageID                     string `json:"pageId"`
	InstagramBusinessAccountID string `json:"instagramBusinessAccountId"`
	ImageURL                   string `json:"imageUrl"`
}

// PublishBody is the body of POST /api/publish.
type PublishBody struct {
	Content                    string            `json:"content"`
	Platforms                  []string          `json:"platforms"`
	AccessTokens               map[string]string `json:"accessTokens"`
	MediaURLs                  []string          `json:"mediaUrls"`
	PageID                     string            `json:"pageId"`
	InstagramBusinessAccountID string            `json:"instagramBusinessAccountId"`
	ImageURL                   string            `json:"imageUrl"`
	UseAggregator              bool              `json:"useAggregator"`
	ScheduleAt                 *time.Time        `json:"scheduleAt"`
}

func (b *PublishBody) ToRequest() *models.PublishRequest {
	return &models.PublishRequest{
		Content:      b.Content,
		Platforms:    b.Platforms,
		MediaURLs:    b.MediaURLs,
		AccessTokens: b.AccessTokens,
		ScheduleAt:   b.ScheduleAt,
		Options: models.PlatformOptions{
			PageID:                     b.PageID,
			InstagramBusinessAccountID: b.InstagramBusinessAccountID,
			ImageURL:                   b.ImageURL,
		},
	}
}

// ToScheduleCreation hands a direct publish with a schedule time to the
// scheduler.
func (b *PublishBody) ToScheduleCreation() *ScheduleCreation {
	creation := &ScheduleCreation{
		Platforms:                  b.Platforms,
		Content:                    b.Content,
		AccessTokens:               b.AccessTokens,
		MediaURLs:                  b.MediaURLs,
		PageID:                     b.PageID,
		InstagramBusinessAccountID: b.InstagramBusinessAccountID,
		ImageURL:                   b.ImageURL,
	}
	if b.ScheduleAt != nil {
		creation.ScheduledTime = b.ScheduleAt.UTC().Format(time.RFC3339)
	}
	return creation
}

// ScheduleCreation is the body of POST /api/schedule-post. Either Platform
// with AccessToken, or Platforms with AccessTokens, must be supplied.
type ScheduleCreation struct {
	Platform                   string            `json:"platform"`
	Platforms                  []string          `json:"platforms"`
	Content                    string            `json:"content"`
	ScheduledTime              string            `json:"scheduledTime"`
	AccessToken                string            `json:"accessToken"`
	AccessTokens               map[string]string `json:"accessTokens"`
	MediaURLs                  []string          `json:"mediaUrls"`
	PageID                     string            `json:"pageId"`
	InstagramBusinessAccountID string            `json:"instagramBusinessAccountId"`
	ImageURL                   string            `json:"imageUrl"`
}

// AyrsharePostBody is the body of POST /api/ayrshare/post.
type AyrsharePostBody struct {
	Content           string   `json:"content"`
	Platforms         []string `json:"platforms"`
	MediaURLs         []string `json:"mediaUrls"`
	ScheduleDate      string   `json:"scheduleDate"`
	FacebookPageID    string   `json:"facebookPageId"`
	InstagramImageURL string   `json:"instagramImageUrl"`
}

type ContentRequest struct {
	ContentType        string   `json:"contentType"`
	BrandTopic         string   `json:"brandTopic"`
	TargetAudience     string   `json:"targetAudience"`
	Tone               string   `json:"tone"`
	Platforms          []string `json:"platforms"`
	IncludeHashtags    bool     `json:"includeHashtags"`
	IncludeCTA         bool     `json:"includeCTA"`
	Creativity         float64  `json:"creativity"`
	CustomInstructions string   `json:"customInstructions,omitempty"`
	BatchSize          int      `json:"batchSize,omitempty"`
}

type GeneratedContent struct {
	Platform       string `json:"platform"`
	Content        string `json:"content"`
	CharacterCount int    `json:"characterCount"`
	WordCount      int    `json:"wordCount"`
}

type BatchPost struct {
	ID             string   `json:"id"`
	Content        string   `json:"content"`
	Platforms      []string `json:"platforms"`
	CharacterCount int      `json:"characterCount"`
	WordCount      int      `json:"wordCount"`
	CreatedAt      string   `json:"createdAt"`
}

type BatchResult struct {
	Posts          []BatchPost `json:"posts"`
	TotalGenerated int         `json:"totalGenerated"`
}

// StateClaims binds an OAuth state value to the browser that started the flow.
type StateClaims struct {
	State    string `json:"state"`
	Platform string `json:"platform"`
	jwt.RegisteredClaims
}
