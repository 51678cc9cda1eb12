package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/crosspost/internal/transfer"
)

const (
	contentMaxTokens = 500
	batchMaxTokens   = 2000
	defaultBatchSize = 10
	maxBatchSize     = 20
)

var numberedItem = regexp.MustCompile(`\d+\.\s`)

type ContentService interface {
	GenerateContent(ctx context.Context, req *transfer.ContentRequest) ([]transfer.GeneratedContent, error)
	GenerateBatch(ctx context.Context, req *transfer.ContentRequest) (*transfer.BatchResult, error)
}

type contentService struct {
	generator TextGenerator
	now       func() time.Time
}

func NewContentService(generator TextGenerator) ContentService {
	return &contentService{generator: generator, now: time.Now}
}

// GenerateContent writes one post per platform. Any failed generation fails
// the whole call.
func (s *contentService) GenerateContent(ctx context.Context, req *transfer.ContentRequest) ([]transfer.GeneratedContent, error) {
	if len(req.Platforms) == 0 {
		return nil, ErrNoPlatforms
	}

	params := GenerationParams{Temperature: req.Creativity / 100, MaxTokens: contentMaxTokens}
	results := make([]transfer.GeneratedContent, len(req.Platforms))
	errs := make([]error, len(req.Platforms))

	var wg sync.WaitGroup
	for i, platform := range req.Platforms {
		wg.Add(1)
		go func(i int, platform string) {
			defer wg.Done()
			text, err := s.generator.Generate(ctx, promptFor(platform, req), params)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", platform, err)
				return
			}
			text = strings.TrimSpace(text)
			results[i] = transfer.GeneratedContent{
				Platform:       platform,
				Content:        text,
				CharacterCount: utf8.RuneCountInString(text),
				WordCount:      wordCount(text),
			}
		}(i, platform)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return results, nil
}

func (s *contentService) GenerateBatch(ctx context.Context, req *transfer.ContentRequest) (*transfer.BatchResult, error) {
	size := req.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	if size > maxBatchSize {
		size = maxBatchSize
	}

	text, err := s.generator.Generate(ctx, batchPrompt(req, size), GenerationParams{
		Temperature: req.Creativity / 100,
		MaxTokens:   batchMaxTokens,
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	now := s.now()
	var posts []transfer.BatchPost
	for _, item := range numberedItem.Split(text, -1) {
		content := strings.TrimSpace(item)
		if content == "" {
			continue
		}
		posts = append(posts, transfer.BatchPost{
			ID:             fmt.Sprintf("batch_%d_%d", now.UnixMilli(), len(posts)),
			Content:        content,
			Platforms:      req.Platforms,
			CharacterCount: utf8.RuneCountInString(content),
			WordCount:      wordCount(content),
			CreatedAt:      now.UTC().Format(time.RFC3339),
		})
	}

	result := &transfer.BatchResult{TotalGenerated: len(posts), Posts: posts}
	if len(posts) > size {
		result.Posts = posts[:size]
	}
	if result.Posts == nil {
		result.Posts = []transfer.BatchPost{}
	}
	return result, nil
}

// wordCount splits on single spaces, so runs of spaces count as words.
func wordCount(text string) int {
	return len(strings.Split(text, " "))
}
