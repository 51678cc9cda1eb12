package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
)

// providerServer stands in for every provider host. Requests keep their
// path; the original host is passed in X-Original-Host.
type providerServer struct {
	*httptest.Server

	mu    sync.Mutex
	calls []string
}

func newProviderServer(t *testing.T, handler http.HandlerFunc) (*providerServer, *http.Client) {
	t.Helper()

	ps := &providerServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.calls = append(ps.calls, r.Method+" "+r.Header.Get("X-Original-Host")+r.URL.Path)
		ps.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(ps.Close)

	client := &http.Client{Transport: &rewriteTransport{target: ps.Listener.Addr().String()}}
	return ps, client
}

func (ps *providerServer) Calls() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.calls...)
}

func (ps *providerServer) CallCount(call string) int {
	n := 0
	for _, c := range ps.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

type rewriteTransport struct {
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set("X-Original-Host", req.URL.Host)
	out.URL.Scheme = "http"
	out.URL.Host = t.target
	out.Host = t.target
	return http.DefaultTransport.RoundTrip(out)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func testConfig() *config.Config {
	app := func(idEnv, secretEnv, prefix string) config.OAuthApp {
		return config.OAuthApp{
			ClientID:     prefix + "-client-id",
			ClientSecret: prefix + "-client-secret",
			IDEnv:        idEnv,
			SecretEnv:    secretEnv,
		}
	}
	return &config.Config{
		Twitter:     app("TWITTER_CLIENT_ID", "TWITTER_CLIENT_SECRET", "tw"),
		LinkedIn:    app("LINKEDIN_CLIENT_ID", "LINKEDIN_CLIENT_SECRET", "li"),
		Facebook:    app("FACEBOOK_APP_ID", "FACEBOOK_APP_SECRET", "fb"),
		Instagram:   app("INSTAGRAM_APP_ID", "INSTAGRAM_APP_SECRET", "ig"),
		BaseURL:     "https://app.example.com",
		FrontendURL: "https://app.example.com",
	}
}

func testCreds(platform string) models.PlatformCredentials {
	return credentialsFor(testConfig(), platform)
}

// fakeClient is a PlatformClient whose behavior is set per test.
type fakeClient struct {
	platform string
	delay    time.Duration
	post     *models.PublishedPost
	err      error
	panicMsg string

	mu     sync.Mutex
	tokens []string
}

func (f *fakeClient) Platform() string { return f.platform }

func (f *fakeClient) AuthorizationURL(state string) string {
	return "https://auth.example.com/" + f.platform + "?state=" + state
}

func (f *fakeClient) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	return models.NewTokenSet("access-"+code, "", time.Hour), nil
}

func (f *fakeClient) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	return &models.UserProfile{ID: f.platform + "-user"}, nil
}

func (f *fakeClient) Publish(ctx context.Context, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, accessToken)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

func (f *fakeClient) publishCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// fakeFactory hands out preconfigured clients and counts constructions.
type fakeFactory struct {
	mu      sync.Mutex
	clients map[string]PlatformClient
	built   int
}

func (f *fakeFactory) New(platform string, creds models.PlatformCredentials) (PlatformClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built++
	client, ok := f.clients[platform]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	return client, nil
}

func (f *fakeFactory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built
}
