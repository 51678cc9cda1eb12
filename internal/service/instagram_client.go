package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

const (
	INSTAGRAM_AUTH_URL  = "https://api.instagram.com/oauth/authorize"
	INSTAGRAM_TOKEN_URL = "https://api.instagram.com/oauth/access_token"
	INSTAGRAM_API_URL   = "https://graph.instagram.com"

	// The basic display token response carries no expires_in.
	instagramDefaultTokenTTL = 3600 * time.Second
)

type InstagramClient struct {
	creds models.PlatformCredentials
	http  *http.Client
}

func NewInstagramClient(creds models.PlatformCredentials, httpClient *http.Client) *InstagramClient {
	return &InstagramClient{creds: creds, http: httpClient}
}

func (c *InstagramClient) Platform() string { return models.PlatformInstagram }

func (c *InstagramClient) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Add("client_id", c.creds.ClientID)
	params.Add("redirect_uri", c.creds.RedirectURI)
	params.Add("scope", "user_profile,user_media")
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode())
}

func (c *InstagramClient) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	data := url.Values{}
	data.Set("client_id", c.creds.ClientID)
	data.Set("client_secret", c.creds.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", c.creds.RedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, INSTAGRAM_TOKEN_URL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &OAuthExchangeError{Platform: models.PlatformInstagram, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token transfer.InstagramTokenResponse
	if _, err := doRequest(c.http, req, &token); err != nil {
		slog.Info(err.Error())
		code, msg := failure(err, nil)
		return nil, &OAuthExchangeError{Platform: models.PlatformInstagram, StatusCode: code, Message: msg}
	}
	if token.AccessToken == "" {
		return nil, &OAuthExchangeError{Platform: models.PlatformInstagram, Message: "response missing access_token"}
	}

	return models.NewTokenSet(token.AccessToken, "", instagramDefaultTokenTTL), nil
}

func (c *InstagramClient) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/me?fields=id,username&access_token=%s", INSTAGRAM_API_URL, url.QueryEscape(accessToken))

	var user transfer.InstagramUserInfo
	body, err := sendRequest(ctx, c.http, http.MethodGet, endpoint, nil, nil, &user)
	if err != nil {
		code, msg := failure(err, nil)
		return nil, &ProfileFetchError{Platform: models.PlatformInstagram, StatusCode: code, Message: msg}
	}
	return &models.UserProfile{ID: user.ID, Username: user.Username, Raw: json.RawMessage(body)}, nil
}

// Publish creates a media container and then publishes it. The publish step
// only runs once the container exists.
func (c *InstagramClient) Publish(ctx context.Context, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error) {
	if err := ValidatePlatformOptions(models.PlatformInstagram, opts); err != nil {
		return nil, err
	}

	containerID, err := c.CreateContainer(ctx, opts.InstagramBusinessAccountID, opts.ImageURL, content, accessToken)
	if err != nil {
		return nil, err
	}
	return c.PublishContainer(ctx, opts.InstagramBusinessAccountID, containerID, accessToken)
}

// CreateContainer is the first publish phase and returns the container id.
func (c *InstagramClient) CreateContainer(ctx context.Context, accountID, imageURL, caption, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media", GRAPH_API_URL, url.PathEscape(accountID))

	var container transfer.GraphIDResponse
	_, err := sendRequest(ctx, c.http, http.MethodPost, endpoint, nil, transfer.InstagramContainerRequest{
		ImageURL:    imageURL,
		Caption:     caption,
		AccessToken: accessToken,
	}, &container)
	if err != nil {
		code, msg := failure(err, graphErrorMessage)
		return "", &PublishError{Platform: models.PlatformInstagram, Stage: StageContainer, StatusCode: code, Message: msg}
	}
	if container.ID == "" {
		return "", &PublishError{Platform: models.PlatformInstagram, Stage: StageContainer, Message: "no media ID returned from Instagram"}
	}
	return container.ID, nil
}

// PublishContainer is the second publish phase.
func (c *InstagramClient) PublishContainer(ctx context.Context, accountID, containerID, accessToken string) (*models.PublishedPost, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish", GRAPH_API_URL, url.PathEscape(accountID))

	var published transfer.GraphIDResponse
	_, err := sendRequest(ctx, c.http, http.MethodPost, endpoint, nil, transfer.InstagramPublishRequest{
		CreationID:  containerID,
		AccessToken: accessToken,
	}, &published)
	if err != nil {
		code, msg := failure(err, graphErrorMessage)
		return nil, &PublishError{
			Platform:    models.PlatformInstagram,
			Stage:       StagePublish,
			StatusCode:  code,
			Message:     msg,
			ContainerID: containerID,
		}
	}
	if published.ID == "" {
		return nil, &PublishError{Platform: models.PlatformInstagram, Stage: StagePublish, Message: "no media ID returned from Instagram", ContainerID: containerID}
	}

	return &models.PublishedPost{ID: published.ID, URL: "https://www.instagram.com/p/" + published.ID}, nil
}
