package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
)

type fakePublishService struct {
	results []models.PublishResult
	err     error
	one     *models.PublishedPost
	oneErr  error
	calls   int
	last    *models.PublishRequest
}

func (f *fakePublishService) Publish(ctx context.Context, req *models.PublishRequest) ([]models.PublishResult, error) {
	f.calls++
	f.last = req
	if len(req.Platforms) == 0 {
		return nil, service.ErrNoPlatforms
	}
	return f.results, f.err
}

func (f *fakePublishService) PublishOne(ctx context.Context, platform, content, accessToken string, opts models.PlatformOptions) (*models.PublishedPost, error) {
	f.calls++
	return f.one, f.oneErr
}

type countingEnqueuer struct {
	tasks []*asynq.Task
}

func (e *countingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newPostApp(direct, aggregator *fakePublishService, enqueuer *countingEnqueuer) *fiber.App {
	schedule := service.NewScheduleService(repository.NewMemoryPostRepository(), "0123456789abcdef")

	var enq queue.Enqueuer
	if enqueuer != nil {
		enq = enqueuer
	}
	h := NewPostHandler(direct, aggregator, schedule, enq)

	app := fiber.New()
	app.Post("/api/post", h.CreatePost)
	app.Post("/api/publish", h.Publish)
	app.Post("/api/schedule-post", h.SchedulePost)
	app.Get("/api/schedule-post", h.ListScheduledPosts)
	return app
}

func postJSON(t *testing.T, app *fiber.App, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCreatePostMissingFields(t *testing.T) {
	direct := &fakePublishService{}
	app := newPostApp(direct, &fakePublishService{}, nil)

	resp, body := postJSON(t, app, "/api/post", map[string]string{"platform": "twitter", "content": "hi"})
	if resp.StatusCode != fiber.StatusBadRequest || body["error"] != "Missing required fields" {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}
	if direct.calls != 0 {
		t.Error("publisher called for an invalid request")
	}
}

func TestCreatePostSuccess(t *testing.T) {
	direct := &fakePublishService{one: &models.PublishedPost{ID: "t1", URL: "https://twitter.com/user/status/t1"}}
	app := newPostApp(direct, &fakePublishService{}, nil)

	resp, body := postJSON(t, app, "/api/post", map[string]string{
		"platform": "twitter", "content": "hi", "accessToken": "tok",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["success"] != true || body["postId"] != "t1" || body["postUrl"] != "https://twitter.com/user/status/t1" || body["timestamp"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestCreatePostUpstreamStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		msg  string
	}{
		{errors.New("Twitter API error: rate limit exceeded"), 429, "Rate limit exceeded. Please try again later."},
		{errors.New("LinkedIn API error: invalid token"), 401, "Authentication failed. Please reconnect your account."},
		{errors.New("Facebook API error: Bad Gateway"), 500, "Failed to create post. Please try again."},
		{&service.ValidationError{Platform: "facebook", Message: "Page ID required for Facebook posts"}, 400, "Page ID required for Facebook posts"},
	}
	for _, tt := range tests {
		app := newPostApp(&fakePublishService{oneErr: tt.err}, &fakePublishService{}, nil)
		resp, body := postJSON(t, app, "/api/post", map[string]string{
			"platform": "twitter", "content": "hi", "accessToken": "tok",
		})
		if resp.StatusCode != tt.want || body["error"] != tt.msg {
			t.Errorf("%v: got %d %v", tt.err, resp.StatusCode, body)
		}
	}
}

func TestPublishReportsPartialFailure(t *testing.T) {
	direct := &fakePublishService{results: []models.PublishResult{
		{Platform: "twitter", Success: true, PostID: "t1"},
		{Platform: "linkedin", ErrorMessage: "LinkedIn API error: Unauthorized"},
	}}
	aggregator := &fakePublishService{}
	app := newPostApp(direct, aggregator, nil)

	resp, body := postJSON(t, app, "/api/publish", map[string]interface{}{
		"content": "hi", "platforms": []string{"twitter", "linkedin"},
	})
	if resp.StatusCode != fiber.StatusOK || body["success"] != true {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
	if results, _ := body["results"].([]interface{}); len(results) != 2 {
		t.Errorf("results = %v", body["results"])
	}
	if aggregator.calls != 0 {
		t.Error("aggregator used without useAggregator")
	}

	resp, _ = postJSON(t, app, "/api/publish", map[string]interface{}{"content": "hi"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("empty platforms status = %d", resp.StatusCode)
	}
}

func TestPublishUsesAggregator(t *testing.T) {
	direct := &fakePublishService{}
	aggregator := &fakePublishService{results: []models.PublishResult{{Platform: "twitter", ErrorMessage: "Duplicate post"}}}
	app := newPostApp(direct, aggregator, nil)

	resp, body := postJSON(t, app, "/api/publish", map[string]interface{}{
		"content": "hi", "platforms": []string{"twitter"}, "useAggregator": true,
	})
	if resp.StatusCode != fiber.StatusOK || body["success"] != false {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}
	if direct.calls != 0 || aggregator.calls != 1 {
		t.Errorf("direct=%d aggregator=%d", direct.calls, aggregator.calls)
	}
}

func TestSchedulePostEnqueues(t *testing.T) {
	enqueuer := &countingEnqueuer{}
	app := newPostApp(&fakePublishService{}, &fakePublishService{}, enqueuer)

	resp, body := postJSON(t, app, "/api/schedule-post", map[string]interface{}{
		"platform":      "twitter",
		"content":       "later",
		"accessToken":   "tok",
		"scheduledTime": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	if resp.StatusCode != fiber.StatusOK || body["success"] != true || body["postId"] == "" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
	if len(enqueuer.tasks) != 1 {
		t.Errorf("enqueued %d tasks", len(enqueuer.tasks))
	}

	id, _ := body["postId"].(string)
	listResp, err := app.Test(httptest.NewRequest("GET", "/api/schedule-post?id="+id, nil))
	if err != nil || listResp.StatusCode != fiber.StatusOK {
		t.Fatalf("get scheduled post: %v %v", listResp, err)
	}
	var got struct {
		Post map[string]interface{} `json:"post"`
	}
	_ = json.NewDecoder(listResp.Body).Decode(&got)
	if got.Post["status"] != models.PostStatusScheduled {
		t.Errorf("post = %v", got.Post)
	}
	if _, leaked := got.Post["accessTokens"]; leaked {
		t.Error("access tokens exposed")
	}

	missing, _ := app.Test(httptest.NewRequest("GET", "/api/schedule-post?id=nope", nil))
	if missing.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing post status = %d", missing.StatusCode)
	}
}

func TestSchedulePostValidation(t *testing.T) {
	app := newPostApp(&fakePublishService{}, &fakePublishService{}, nil)

	resp, body := postJSON(t, app, "/api/schedule-post", map[string]interface{}{
		"platform": "twitter", "content": "past", "scheduledTime": "2020-01-01T00:00:00Z",
	})
	if resp.StatusCode != fiber.StatusBadRequest || body["error"] != "Scheduled time must be in the future" {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, app, "/api/schedule-post", map[string]interface{}{"content": "x"})
	if resp.StatusCode != fiber.StatusBadRequest || body["error"] != "Missing required fields" {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}
}

func TestPublishWithScheduleAt(t *testing.T) {
	at := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)

	direct := &fakePublishService{}
	enqueuer := &countingEnqueuer{}
	app := newPostApp(direct, &fakePublishService{}, enqueuer)

	resp, body := postJSON(t, app, "/api/publish", map[string]interface{}{
		"content":      "later",
		"platforms":    []string{"Twitter"},
		"accessTokens": map[string]string{"Twitter": "tok"},
		"scheduleAt":   at.Format(time.RFC3339),
	})
	if resp.StatusCode != fiber.StatusOK || body["success"] != true || body["postId"] == "" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
	if direct.calls != 0 {
		t.Error("direct publisher called for a scheduled post")
	}
	if len(enqueuer.tasks) != 1 {
		t.Errorf("enqueued %d tasks", len(enqueuer.tasks))
	}

	aggregator := &fakePublishService{results: []models.PublishResult{{Platform: "twitter", Success: true, PostID: "t1"}}}
	app = newPostApp(&fakePublishService{}, aggregator, nil)
	resp, body = postJSON(t, app, "/api/publish", map[string]interface{}{
		"content":       "later",
		"platforms":     []string{"twitter"},
		"useAggregator": true,
		"scheduleAt":    at.Format(time.RFC3339),
	})
	if resp.StatusCode != fiber.StatusOK || body["success"] != true {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
	if aggregator.last == nil || aggregator.last.ScheduleAt == nil || !aggregator.last.ScheduleAt.Equal(at) {
		t.Errorf("aggregator request = %+v", aggregator.last)
	}
}

func TestPublishWithPastScheduleAt(t *testing.T) {
	direct := &fakePublishService{}
	app := newPostApp(direct, &fakePublishService{}, nil)

	resp, body := postJSON(t, app, "/api/publish", map[string]interface{}{
		"content":    "late",
		"platforms":  []string{"twitter"},
		"scheduleAt": "2020-01-01T00:00:00Z",
	})
	if resp.StatusCode != fiber.StatusBadRequest || body["error"] != "Scheduled time must be in the future" {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}
	if direct.calls != 0 {
		t.Error("direct publisher called")
	}
}
