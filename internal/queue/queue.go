package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the subset of *asynq.Client used to schedule posts.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueuePost schedules the publish task to run after delay. The post id is
// used as the task id so a post is queued at most once.
func EnqueuePost(client Enqueuer, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = client.Enqueue(task, asynq.ProcessIn(delay), asynq.TaskID(payload.PostID))
	if err != nil {
		return err
	}

	slog.Info("task scheduled", "post_id", payload.PostID, "delay", delay.String())
	return nil
}
