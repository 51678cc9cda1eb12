package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	TWITTER_AUTH_URL  = "https://twitter.com/i/oauth2/authorize"
	TWITTER_TOKEN_URL = "https://api.twitter.com/2/oauth2/token"
	TWITTER_API_URL   = "https://api.twitter.com/2"

	// Static PKCE pair sent with method "plain".
	twitterCodeChallenge = "challenge"
)

type TwitterClient struct {
	oauth *oauth2.Config
	http  *http.Client
}

func NewTwitterClient(creds models.PlatformCredentials, httpClient *http.Client) *TwitterClient {
	return &TwitterClient{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   TWITTER_AUTH_URL,
				TokenURL:  TWITTER_TOKEN_URL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		http: httpClient,
	}
}

func (c *TwitterClient) Platform() string { return models.PlatformTwitter }

func (c *TwitterClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", twitterCodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "plain"),
	)
}

func (c *TwitterClient) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	tok, err := c.oauth.Exchange(withHTTPClient(ctx, c.http), code, oauth2.VerifierOption(twitterCodeChallenge))
	if err != nil {
		slog.Info(err.Error())
		return nil, exchangeError(models.PlatformTwitter, err)
	}
	return tokenSetFromOAuth2(tok), nil
}

func (c *TwitterClient) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenSet, error) {
	src := c.oauth.TokenSource(withHTTPClient(ctx, c.http), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, exchangeError(models.PlatformTwitter, err)
	}
	return tokenSetFromOAuth2(tok), nil
}

func (c *TwitterClient) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	var user transfer.TwitterUserResponse
	body, err := sendRequest(ctx, c.http, http.MethodGet, TWITTER_API_URL+"/users/me", bearer(accessToken), nil, &user)
	if err != nil {
		code, msg := failure(err, nil)
		return nil, &ProfileFetchError{Platform: models.PlatformTwitter, StatusCode: code, Message: msg}
	}
	return &models.UserProfile{ID: user.Data.ID, Username: user.Data.Username, Raw: json.RawMessage(body)}, nil
}

func (c *TwitterClient) Publish(ctx context.Context, content, accessToken string, _ models.PlatformOptions) (*models.PublishedPost, error) {
	var tweet transfer.TwitterTweetResponse
	_, err := sendRequest(ctx, c.http, http.MethodPost, TWITTER_API_URL+"/tweets", bearer(accessToken),
		transfer.TwitterTweetRequest{Text: content}, &tweet)
	if err != nil {
		code, msg := failure(err, twitterErrorMessage)
		return nil, &PublishError{Platform: models.PlatformTwitter, Stage: StagePost, StatusCode: code, Message: msg}
	}
	if tweet.Data.ID == "" {
		return nil, &PublishError{Platform: models.PlatformTwitter, Stage: StagePost, Message: "no tweet ID returned"}
	}

	return &models.PublishedPost{
		ID:  tweet.Data.ID,
		URL: fmt.Sprintf("https://twitter.com/user/status/%s", tweet.Data.ID),
	}, nil
}

func twitterErrorMessage(body []byte) string {
	var e transfer.TwitterErrorResponse
	decodeJSONField(body, &e)
	return e.Detail
}
