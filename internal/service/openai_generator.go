package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	OPENAI_API_URL     = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o"
	openAIHTTPTimeout  = 60 * time.Second
)

// GenerationParams are passed through to the model unchanged.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// TextGenerator turns a prompt into generated text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// OpenAIConfig captures the settings required to call the chat completion API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIHTTPClient overrides the default HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(g *OpenAIGenerator) {
		if client != nil {
			g.http = client
		}
	}
}

// OpenAIGenerator wraps the OpenAI chat completion API.
type OpenAIGenerator struct {
	cfg  OpenAIConfig
	http *http.Client
}

func NewOpenAIGenerator(cfg OpenAIConfig, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		cfg: OpenAIConfig{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Model:   strings.TrimSpace(cfg.Model),
		},
		http: &http.Client{Timeout: openAIHTTPTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cfg.BaseURL == "" {
		g.cfg.BaseURL = OPENAI_API_URL
	}
	if g.cfg.Model == "" {
		g.cfg.Model = defaultOpenAIModel
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("generate: prompt required")
	}
	if g.cfg.APIKey == "" {
		return "", &ConfigurationError{Missing: []string{"OPENAI_API_KEY"}}
	}

	payload := chatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	var resp chatCompletionResponse
	if _, err := sendRequest(ctx, g.http, http.MethodPost, g.cfg.BaseURL, bearer(g.cfg.APIKey), payload, &resp); err != nil {
		_, msg := failure(err, func(b []byte) string {
			var e openAIErrorResponse
			decodeJSONField(b, &e)
			return e.Error.Message
		})
		return "", fmt.Errorf("generate: %s", msg)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("generate: no choices returned")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("generate: empty content (finish_reason=%q)", resp.Choices[0].FinishReason)
	}
	return content, nil
}
