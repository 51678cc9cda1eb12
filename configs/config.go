package config

import (
	"fmt"
	"os"
	"strings"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// OAuthApp is the client registration for one platform, together with the
// environment variable names it was read from.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	IDEnv        string
	SecretEnv    string
}

type Config struct {
	Twitter   OAuthApp
	LinkedIn  OAuthApp
	Facebook  OAuthApp
	Instagram OAuthApp

	BaseURL     string
	FrontendURL string
	Port        string

	AyrshareAPIKey  string
	AyrshareBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	PostgresURI string
	RedisURI    string
	R2          R2

	SecretKey       string
	APIKey          string
	StateCookieName string
}

func LoadConfig() *Config {
	baseURL := strings.TrimRight(getEnv("BASE_URL", ""), "/")
	return &Config{
		Twitter:   loadOAuthApp("TWITTER_CLIENT_ID", "TWITTER_CLIENT_SECRET"),
		LinkedIn:  loadOAuthApp("LINKEDIN_CLIENT_ID", "LINKEDIN_CLIENT_SECRET"),
		Facebook:  loadOAuthApp("FACEBOOK_APP_ID", "FACEBOOK_APP_SECRET"),
		Instagram: loadOAuthApp("INSTAGRAM_APP_ID", "INSTAGRAM_APP_SECRET"),

		BaseURL:     baseURL,
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", baseURL), "/"),
		Port:        getEnv("PORT", "3000"),

		AyrshareAPIKey:  getEnv("AYRSHARE_API_KEY", ""),
		AyrshareBaseURL: getEnv("AYRSHARE_BASE_URL", "https://app.ayrshare.com/api"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),

		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),
		},

		SecretKey:       getEnv("SECRET_KEY", ""),
		APIKey:          getEnv("API_KEY", ""),
		StateCookieName: getEnv("STATE_COOKIE_NAME", "oauth_state"),
	}
}

func loadOAuthApp(idEnv, secretEnv string) OAuthApp {
	return OAuthApp{
		ClientID:     getEnv(idEnv, ""),
		ClientSecret: getEnv(secretEnv, ""),
		IDEnv:        idEnv,
		SecretEnv:    secretEnv,
	}
}

// App returns the OAuth registration for platform. ok is false for
// platforms that have no direct integration.
func (c *Config) App(platform string) (app OAuthApp, ok bool) {
	switch platform {
	case "twitter":
		return c.Twitter, true
	case "linkedin":
		return c.LinkedIn, true
	case "facebook":
		return c.Facebook, true
	case "instagram":
		return c.Instagram, true
	}
	return OAuthApp{}, false
}

// MissingSettings lists the environment variables that must be set before
// platform can run an OAuth flow, in a stable order.
func (c *Config) MissingSettings(platform string) []string {
	app, ok := c.App(platform)
	if !ok {
		return nil
	}

	var missing []string
	if app.ClientID == "" {
		missing = append(missing, app.IDEnv)
	}
	if app.ClientSecret == "" {
		missing = append(missing, app.SecretEnv)
	}
	if c.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	return missing
}

func (c *Config) RedirectURI(platform string) string {
	return fmt.Sprintf("%s/auth/%s/callback", c.BaseURL, platform)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
