package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

const AYRSHARE_API_URL = "https://app.ayrshare.com/api"

// AyrshareService wraps the aggregator API. One call fans out to every
// platform on the aggregator's side.
type AyrshareService interface {
	ListProfiles(ctx context.Context) ([]transfer.AyrshareProfile, error)
	CreatePost(ctx context.Context, req *transfer.AyrsharePostRequest) (*transfer.AyrsharePostResponse, error)
	SchedulePost(ctx context.Context, req *transfer.AyrsharePostRequest) (*transfer.AyrsharePostResponse, error)
	UploadMedia(ctx context.Context, filename string, file io.Reader) (string, error)
	GetAnalytics(ctx context.Context, platforms []string, lastDays int) (map[string]json.RawMessage, error)
	GetPostAnalytics(ctx context.Context, postID string) (json.RawMessage, error)
	DeletePost(ctx context.Context, postID string) (json.RawMessage, error)
	GetHistory(ctx context.Context, lastDays int, platform string) (json.RawMessage, error)
}

type ayrshareService struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewAyrshareService(cfg *config.Config, httpClient *http.Client) AyrshareService {
	baseURL := cfg.AyrshareBaseURL
	if baseURL == "" {
		baseURL = AYRSHARE_API_URL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ayrshareService{
		apiKey:  cfg.AyrshareAPIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (s *ayrshareService) ListProfiles(ctx context.Context) ([]transfer.AyrshareProfile, error) {
	var resp transfer.AyrshareProfilesResponse
	if err := s.makeRequest(ctx, http.MethodGet, "/profiles", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Profiles == nil {
		return []transfer.AyrshareProfile{}, nil
	}
	return resp.Profiles, nil
}

func (s *ayrshareService) CreatePost(ctx context.Context, req *transfer.AyrsharePostRequest) (*transfer.AyrsharePostResponse, error) {
	var resp transfer.AyrsharePostResponse
	if err := s.makeRequest(ctx, http.MethodPost, "/post", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ayrshareService) SchedulePost(ctx context.Context, req *transfer.AyrsharePostRequest) (*transfer.AyrsharePostResponse, error) {
	if req.ScheduleDate == "" {
		return nil, errors.New("Schedule date is required for scheduled posts")
	}
	return s.CreatePost(ctx, req)
}

// UploadMedia sends file as multipart form data and returns the hosted URL.
func (s *ayrshareService) UploadMedia(ctx context.Context, filename string, file io.Reader) (string, error) {
	if err := s.checkKey(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp transfer.AyrshareUploadResponse
	if _, err := doRequest(s.http, req, &resp); err != nil {
		code, msg := failure(err, nil)
		return "", &AggregatorError{StatusCode: code, Message: "Upload failed: " + msg}
	}
	return resp.URL, nil
}

func (s *ayrshareService) GetAnalytics(ctx context.Context, platforms []string, lastDays int) (map[string]json.RawMessage, error) {
	params := url.Values{}
	if platforms = trimmed(platforms); len(platforms) > 0 {
		params.Set("platforms", strings.Join(platforms, ","))
	}
	if lastDays > 0 {
		params.Set("lastDays", strconv.Itoa(lastDays))
	}

	analytics := map[string]json.RawMessage{}
	if err := s.makeRequest(ctx, http.MethodGet, withQuery("/analytics", params), nil, &analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (s *ayrshareService) GetPostAnalytics(ctx context.Context, postID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.makeRequest(ctx, http.MethodGet, "/analytics/post/"+url.PathEscape(postID), nil, &raw)
	return raw, err
}

func (s *ayrshareService) DeletePost(ctx context.Context, postID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.makeRequest(ctx, http.MethodDelete, "/delete/"+url.PathEscape(postID), nil, &raw)
	return raw, err
}

func (s *ayrshareService) GetHistory(ctx context.Context, lastDays int, platform string) (json.RawMessage, error) {
	params := url.Values{}
	if lastDays > 0 {
		params.Set("lastDays", strconv.Itoa(lastDays))
	}
	if platform != "" {
		params.Set("platform", platform)
	}

	var raw json.RawMessage
	err := s.makeRequest(ctx, http.MethodGet, withQuery("/history", params), nil, &raw)
	return raw, err
}

func (s *ayrshareService) checkKey() error {
	if s.apiKey == "" {
		return &ConfigurationError{Missing: []string{"AYRSHARE_API_KEY"}}
	}
	return nil
}

// makeRequest classifies any non-2xx reply from the body's message field,
// falling back to the status text.
func (s *ayrshareService) makeRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	if err := s.checkKey(); err != nil {
		return err
	}

	_, err := sendRequest(ctx, s.http, method, s.baseURL+endpoint, bearer(s.apiKey), body, out)
	if err != nil {
		code, msg := failure(err, func(b []byte) string {
			var e transfer.AyrshareErrorResponse
			decodeJSONField(b, &e)
			return e.Message
		})
		return &AggregatorError{StatusCode: code, Message: msg}
	}
	return nil
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// AyrsharePublisher adapts the aggregator to the Publisher contract.
type AyrsharePublisher struct {
	ayrshare AyrshareService
}

func NewAyrsharePublisher(ayrshare AyrshareService) *AyrsharePublisher {
	return &AyrsharePublisher{ayrshare: ayrshare}
}

func (p *AyrsharePublisher) Publish(ctx context.Context, req *models.PublishRequest) ([]models.PublishResult, error) {
	platforms, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	if req.ScheduleAt != nil && !req.ScheduleAt.After(time.Now()) {
		return nil, ErrScheduleInPast
	}

	resp, err := p.ayrshare.CreatePost(ctx, BuildAyrsharePost(req, platforms))
	if err != nil {
		return nil, err
	}
	return ResultsFromAyrshare(platforms, resp), nil
}

// BuildAyrsharePost maps a publish request onto the aggregator body.
func BuildAyrsharePost(req *models.PublishRequest, platforms []string) *transfer.AyrsharePostRequest {
	post := &transfer.AyrsharePostRequest{
		Post:         req.Content,
		Platforms:    platforms,
		ShortenLinks: true,
	}
	if len(req.MediaURLs) > 0 {
		post.MediaURLs = req.MediaURLs
	}
	if req.ScheduleAt != nil {
		post.ScheduleDate = req.ScheduleAt.UTC().Format(time.RFC3339)
	}
	if req.Options.PageID != "" {
		post.FacebookOptions = &transfer.AyrshareFacebookOptions{PageID: req.Options.PageID}
	}
	if req.Options.ImageURL != "" {
		post.InstagramOptions = &transfer.AyrshareInstagramOptions{ImageURL: req.Options.ImageURL}
	}
	return post
}

// ResultsFromAyrshare reads one result per platform. An entry in errors
// overrides a post id for the same platform.
func ResultsFromAyrshare(platforms []string, resp *transfer.AyrsharePostResponse) []models.PublishResult {
	results := make([]models.PublishResult, 0, len(platforms))
	for _, p := range platforms {
		if msg, failed := resp.Errors[p]; failed {
			results = append(results, models.FailedResult(p, msg))
			continue
		}
		id, ok := resp.PostIDs[p]
		if !ok || id == "" {
			results = append(results, models.FailedResult(p, fmt.Sprintf("no post id returned for %s", p)))
			continue
		}
		results = append(results, models.SucceededResult(p, &models.PublishedPost{ID: id, URL: resp.PostURLs[p]}))
	}
	return results
}
