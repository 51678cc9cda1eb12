package queue

import (
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
)

type Queue struct {
	posts     repository.ScheduledPostRepository
	publisher service.Publisher
	secretKey []byte
}

func NewQueue(posts repository.ScheduledPostRepository, publisher service.Publisher, secretKey string) *Queue {
	return &Queue{
		posts:     posts,
		publisher: publisher,
		secretKey: []byte(secretKey),
	}
}

const TaskTypePublishPost = "publish:scheduled_post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
