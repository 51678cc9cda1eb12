package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/crosspost/internal/models"
)

var ErrNotFound = errors.New("record not found")

// ScheduledPostRepository is the store behind the scheduler.
type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error)
	// Claim moves a post from scheduled to publishing. It reports false when
	// the post was already claimed or does not exist.
	Claim(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string, results []models.PublishResult) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) ScheduledPostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, platforms, content, media_urls, options, access_tokens, scheduled_at, status, results, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.ScheduledPost, error) {
	var (
		post                     models.ScheduledPost
		options, tokens, results []byte
	)
	err := row.Scan(&post.ID, pq.Array(&post.Platforms), &post.Content, pq.Array(&post.MediaURLs),
		&options, &tokens, &post.ScheduledAt, &post.Status, &results, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		if err := json.Unmarshal(options, &post.Options); err != nil {
			return nil, err
		}
	}
	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &post.AccessTokens); err != nil {
			return nil, err
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &post.Results); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.ScheduledPost) error {
	options, err := json.Marshal(post.Options)
	if err != nil {
		return err
	}
	tokens, err := json.Marshal(post.AccessTokens)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scheduled_posts (id, platforms, content, media_urls, options, access_tokens, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		post.ID,
		pq.Array(post.Platforms),
		post.Content,
		pq.Array(post.MediaURLs),
		options,
		tokens,
		post.ScheduledAt,
		post.Status,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts ORDER BY scheduled_at`
	return r.query(ctx, query)
}

func (r *postRepository) ListDue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE status = $1 AND scheduled_at <= $2 ORDER BY scheduled_at`
	return r.query(ctx, query, models.PostStatusScheduled, before)
}

func (r *postRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id, status string, results []models.PublishResult) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return err
	}

	query := `
		UPDATE scheduled_posts
		SET status = $1,
			results = $2,
			updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, encoded, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
