package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	LINKEDIN_AUTH_URL  = "https://www.linkedin.com/oauth/v2/authorization"
	LINKEDIN_TOKEN_URL = "https://www.linkedin.com/oauth/v2/accessToken"
	LINKEDIN_API_URL   = "https://api.linkedin.com/v2"
)

type LinkedInClient struct {
	oauth *oauth2.Config
	http  *http.Client
}

func NewLinkedInClient(creds models.PlatformCredentials, httpClient *http.Client) *LinkedInClient {
	return &LinkedInClient{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       []string{"w_member_social"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   LINKEDIN_AUTH_URL,
				TokenURL:  LINKEDIN_TOKEN_URL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http: httpClient,
	}
}

func (c *LinkedInClient) Platform() string { return models.PlatformLinkedIn }

func (c *LinkedInClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *LinkedInClient) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	tok, err := c.oauth.Exchange(withHTTPClient(ctx, c.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, exchangeError(models.PlatformLinkedIn, err)
	}
	return tokenSetFromOAuth2(tok), nil
}

func (c *LinkedInClient) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	var profile transfer.LinkedInProfile
	body, err := sendRequest(ctx, c.http, http.MethodGet, LINKEDIN_API_URL+"/people/~", bearer(accessToken), nil, &profile)
	if err != nil {
		code, msg := failure(err, nil)
		return nil, &ProfileFetchError{Platform: models.PlatformLinkedIn, StatusCode: code, Message: msg}
	}
	return &models.UserProfile{ID: profile.ID, Username: profile.VanityName, Raw: json.RawMessage(body)}, nil
}

// Publish fetches the member profile for the author URN and then submits
// the post. A failed profile fetch means no post is submitted.
func (c *LinkedInClient) Publish(ctx context.Context, content, accessToken string, _ models.PlatformOptions) (*models.PublishedPost, error) {
	author, err := c.AuthorURN(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return c.SubmitPost(ctx, accessToken, author, content)
}

// AuthorURN is the first publish phase.
func (c *LinkedInClient) AuthorURN(ctx context.Context, accessToken string) (string, error) {
	profile, err := c.FetchProfile(ctx, accessToken)
	if err != nil {
		pe := &PublishError{Platform: models.PlatformLinkedIn, Stage: StageProfile, Message: err.Error()}
		if fetchErr, ok := err.(*ProfileFetchError); ok {
			pe.StatusCode = fetchErr.StatusCode
			pe.Message = fetchErr.Message
		}
		return "", pe
	}
	if profile.ID == "" {
		return "", &PublishError{Platform: models.PlatformLinkedIn, Stage: StageProfile, Message: "profile has no id"}
	}
	return "urn:li:person:" + profile.ID, nil
}

// SubmitPost is the second publish phase.
func (c *LinkedInClient) SubmitPost(ctx context.Context, accessToken, authorURN, content string) (*models.PublishedPost, error) {
	post := transfer.LinkedInUGCPost{Author: authorURN, LifecycleState: "PUBLISHED"}
	post.SpecificContent.ShareContent = transfer.LinkedInShareContent{
		ShareCommentary:    transfer.LinkedInShareCommentary{Text: content},
		ShareMediaCategory: "NONE",
	}
	post.Visibility.MemberNetworkVisibility = "PUBLIC"

	header := bearer(accessToken)
	header.Set("X-Restli-Protocol-Version", "2.0.0")

	var created transfer.LinkedInPostResponse
	if _, err := sendRequest(ctx, c.http, http.MethodPost, LINKEDIN_API_URL+"/ugcPosts", header, post, &created); err != nil {
		code, msg := failure(err, linkedInErrorMessage)
		return nil, &PublishError{Platform: models.PlatformLinkedIn, Stage: StagePost, StatusCode: code, Message: msg}
	}
	if created.ID == "" {
		return nil, &PublishError{Platform: models.PlatformLinkedIn, Stage: StagePost, Message: "no post ID returned"}
	}

	return &models.PublishedPost{
		ID:  created.ID,
		URL: "https://www.linkedin.com/feed/update/" + created.ID,
	}, nil
}

func linkedInErrorMessage(body []byte) string {
	var e transfer.LinkedInErrorResponse
	decodeJSONField(body, &e)
	return e.Message
}
