package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maheshrc27/crosspost/internal/models"
	"golang.org/x/oauth2"
)

// responseError is a non-2xx reply from a provider.
type responseError struct {
	StatusCode int
	Body       []byte
}

func (e *responseError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, statusText(e.StatusCode))
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", code)
}

// sendRequest issues a request with an optional JSON body and decodes a 2xx
// JSON reply into out. The raw reply body is always returned when one was read.
func sendRequest(ctx context.Context, client *http.Client, method, endpoint string, header http.Header, body, out interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshalling payload: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return doRequest(client, req, out)
}

func doRequest(client *http.Client, req *http.Request, out interface{}) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, &responseError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return respBody, fmt.Errorf("error parsing response: %w", err)
		}
	}
	return respBody, nil
}

func bearer(accessToken string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+accessToken)
	return h
}

// failure splits err into the status code and message a typed provider error
// should carry. extract pulls the provider's own message out of an error body.
func failure(err error, extract func([]byte) string) (int, string) {
	var respErr *responseError
	if errors.As(err, &respErr) {
		if extract != nil {
			if msg := extract(respErr.Body); msg != "" {
				return respErr.StatusCode, msg
			}
		}
		return respErr.StatusCode, statusText(respErr.StatusCode)
	}
	return 0, err.Error()
}

func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// exchangeError converts an oauth2 token endpoint failure.
func exchangeError(platform string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return &OAuthExchangeError{
			Platform:   platform,
			StatusCode: retrieveErr.Response.StatusCode,
			Message:    statusText(retrieveErr.Response.StatusCode),
		}
	}
	return &OAuthExchangeError{Platform: platform, Message: err.Error()}
}

func tokenSetFromOAuth2(tok *oauth2.Token) *models.TokenSet {
	set := &models.TokenSet{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if !tok.Expiry.IsZero() {
		set.ExpiresAt = tok.Expiry.UnixMilli()
	}
	return set
}

func decodeJSONField(body []byte, into interface{}) {
	if len(body) == 0 {
		return
	}
	_ = json.Unmarshal(body, into)
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
