package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/transfer"
)

type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	params  []GenerationParams
	reply   func(prompt string) (string, error)
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.params = append(g.params, params)
	g.mu.Unlock()
	return g.reply(prompt)
}

func TestGenerateContentPerPlatform(t *testing.T) {
	gen := &stubGenerator{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "LinkedIn") {
			return "  Thought leadership post  ", nil
		}
		return "Short tweet #go", nil
	}}
	svc := NewContentService(gen)

	results, err := svc.GenerateContent(context.Background(), &transfer.ContentRequest{
		ContentType: "tips",
		BrandTopic:  "Go tooling",
		Tone:        "friendly",
		Platforms:   []string{"twitter", "linkedin"},
		Creativity:  70,
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	if results[0].Platform != "twitter" || results[0].Content != "Short tweet #go" {
		t.Errorf("twitter = %+v", results[0])
	}
	if results[1].Content != "Thought leadership post" || results[1].WordCount != 3 || results[1].CharacterCount != 23 {
		t.Errorf("linkedin = %+v", results[1])
	}
	for _, p := range gen.params {
		if p.Temperature != 0.7 || p.MaxTokens != 500 {
			t.Errorf("unexpected params %+v", p)
		}
	}
}

func TestGenerateContentFailsAsAWhole(t *testing.T) {
	gen := &stubGenerator{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Instagram") {
			return "", errors.New("generate: rate limited")
		}
		return "ok", nil
	}}
	svc := NewContentService(gen)

	_, err := svc.GenerateContent(context.Background(), &transfer.ContentRequest{Platforms: []string{"twitter", "instagram"}})
	if err == nil || !strings.Contains(err.Error(), "instagram: generate: rate limited") {
		t.Fatalf("unexpected error %v", err)
	}

	if _, err := svc.GenerateContent(context.Background(), &transfer.ContentRequest{}); !errors.Is(err, ErrNoPlatforms) {
		t.Errorf("expected ErrNoPlatforms, got %v", err)
	}
}

func TestGenerateBatchSplitsNumberedList(t *testing.T) {
	gen := &stubGenerator{reply: func(string) (string, error) {
		return "1. First idea\n2. Second idea here\n3. Third", nil
	}}
	svc := &contentService{
		generator: gen,
		now:       func() time.Time { return time.UnixMilli(1700000000000) },
	}

	result, err := svc.GenerateBatch(context.Background(), &transfer.ContentRequest{
		Platforms: []string{"twitter"},
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}

	if result.TotalGenerated != 3 || len(result.Posts) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Posts[0].ID != "batch_1700000000000_0" || result.Posts[1].Content != "Second idea here" {
		t.Errorf("unexpected posts %+v", result.Posts)
	}
	if gen.params[0].MaxTokens != 2000 {
		t.Errorf("max tokens = %d", gen.params[0].MaxTokens)
	}
	if !strings.Contains(gen.prompts[0], "2") {
		t.Errorf("prompt does not carry batch size: %q", gen.prompts[0])
	}
}

func TestGenerateBatchClampsSize(t *testing.T) {
	gen := &stubGenerator{reply: func(string) (string, error) { return "", nil }}
	svc := NewContentService(gen)

	result, err := svc.GenerateBatch(context.Background(), &transfer.ContentRequest{BatchSize: 50})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if result.Posts == nil || len(result.Posts) != 0 {
		t.Errorf("expected empty posts, got %+v", result.Posts)
	}
	if !strings.Contains(gen.prompts[0], "20") {
		t.Errorf("batch size not capped in prompt: %q", gen.prompts[0])
	}
}

func TestPromptForFallsBackToTwitter(t *testing.T) {
	req := &transfer.ContentRequest{BrandTopic: "coffee"}
	if promptFor("mastodon", req) != promptFor("twitter", req) {
		t.Error("unknown platforms should use the twitter prompt")
	}
	if !strings.Contains(promptFor("linkedin", req), "coffee") {
		t.Error("prompt should mention the topic")
	}
}

func TestOpenAIGenerator(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			writeJSON(w, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":" generated "},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL}, WithOpenAIHTTPClient(server.Client()))
	text, err := gen.Generate(context.Background(), "write", GenerationParams{Temperature: 0.5, MaxTokens: 500})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "generated" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "gpt-4o" || got.Temperature != 0.5 || got.MaxTokens != 500 || got.Messages[0].Content != "write" {
		t.Errorf("unexpected request %+v", got)
	}

	bad := NewOpenAIGenerator(OpenAIConfig{APIKey: "wrong", BaseURL: server.URL}, WithOpenAIHTTPClient(server.Client()))
	if _, err := bad.Generate(context.Background(), "write", GenerationParams{}); err == nil || err.Error() != "generate: Incorrect API key provided" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestOpenAIGeneratorRequiresKey(t *testing.T) {
	gen := NewOpenAIGenerator(OpenAIConfig{})
	_, err := gen.Generate(context.Background(), "write", GenerationParams{})

	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
