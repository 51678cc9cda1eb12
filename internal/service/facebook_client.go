package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	FACEBOOK_AUTH_URL  = "https://www.facebook.com/v18.0/dialog/oauth"
	FACEBOOK_TOKEN_URL = "https://graph.facebook.com/v18.0/oauth/access_token"
	GRAPH_API_URL      = "https://graph.facebook.com/v18.0"
)

type FacebookClient struct {
	oauth *oauth2.Config
	http  *http.Client
}

func NewFacebookClient(creds models.PlatformCredentials, httpClient *http.Client) *FacebookClient {
	return &FacebookClient{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			// Facebook expects a comma separated scope list.
			Scopes: []string{"pages_manage_posts,pages_read_engagement,publish_to_groups"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   FACEBOOK_AUTH_URL,
				TokenURL:  FACEBOOK_TOKEN_URL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http: httpClient,
	}
}

func (c *FacebookClient) Platform() string { return models.PlatformFacebook }

func (c *FacebookClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *FacebookClient) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	tok, err := c.oauth.Exchange(withHTTPClient(ctx, c.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, exchangeError(models.PlatformFacebook, err)
	}
	return tokenSetFromOAuth2(tok), nil
}

func (c *FacebookClient) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/me?fields=id,name&access_token=%s", GRAPH_API_URL, url.QueryEscape(accessToken))

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	body, err := sendRequest(ctx, c.http, http.MethodGet, endpoint, nil, nil, &me)
	if err != nil {
		code, msg := failure(err, nil)
		return nil, &ProfileFetchError{Platform: models.PlatformFacebook, StatusCode: code, Message: msg}
	}
	return &models.UserProfile{ID: me.ID, Username: me.Name, Raw: json.RawMessage(body)}, nil
}

// FetchPages lists the pages the user manages, each with its page token.
func (c *FacebookClient) FetchPages(ctx context.Context, accessToken string) ([]models.FacebookPage, []byte, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?access_token=%s", GRAPH_API_URL, url.QueryEscape(accessToken))

	var pages transfer.FacebookPagesResponse
	body, err := sendRequest(ctx, c.http, http.MethodGet, endpoint, nil, nil, &pages)
	if err != nil {
		code, msg := failure(err, nil)
		return nil, nil, &ProfileFetchError{Platform: models.PlatformFacebook, StatusCode: code, Message: msg}
	}
	return pages.Data, body, nil
}

// Publish posts to a page feed. accessToken must be the page token, not
// the user token obtained at login.
func (c *FacebookClient) Publish(ctx context.Context, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error) {
	if err := ValidatePlatformOptions(models.PlatformFacebook, opts); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/feed", GRAPH_API_URL, url.PathEscape(opts.PageID))

	var created transfer.GraphIDResponse
	_, err := sendRequest(ctx, c.http, http.MethodPost, endpoint, nil,
		transfer.FacebookFeedPost{Message: content, AccessToken: accessToken}, &created)
	if err != nil {
		code, msg := failure(err, graphErrorMessage)
		return nil, &PublishError{Platform: models.PlatformFacebook, Stage: StagePost, StatusCode: code, Message: msg}
	}
	if created.ID == "" {
		return nil, &PublishError{Platform: models.PlatformFacebook, Stage: StagePost, Message: "no post ID returned"}
	}

	return &models.PublishedPost{ID: created.ID, URL: "https://www.facebook.com/" + created.ID}, nil
}

func graphErrorMessage(body []byte) string {
	var e transfer.GraphErrorResponse
	decodeJSONField(body, &e)
	return e.Error.Message
}
