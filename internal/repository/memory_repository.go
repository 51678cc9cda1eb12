package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

// In-memory stores, used when no database is configured. Contents are lost
// on restart.

type memoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.ScheduledPost
	order []string
}

func NewMemoryPostRepository() ScheduledPostRepository {
	return &memoryPostRepository{posts: make(map[string]*models.ScheduledPost)}
}

func copyPost(p *models.ScheduledPost) *models.ScheduledPost {
	cp := *p
	cp.Platforms = append([]string(nil), p.Platforms...)
	cp.MediaURLs = append([]string(nil), p.MediaURLs...)
	cp.Results = append([]models.PublishResult(nil), p.Results...)
	if p.AccessTokens != nil {
		cp.AccessTokens = make(map[string]string, len(p.AccessTokens))
		for k, v := range p.AccessTokens {
			cp.AccessTokens[k] = v
		}
	}
	return &cp
}

func (r *memoryPostRepository) Create(ctx context.Context, post *models.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	post.CreatedAt, post.UpdatedAt = now, now
	if _, exists := r.posts[post.ID]; !exists {
		r.order = append(r.order, post.ID)
	}
	r.posts[post.ID] = copyPost(post)
	return nil
}

func (r *memoryPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return copyPost(post), nil
}

func (r *memoryPostRepository) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]*models.ScheduledPost, 0, len(r.order))
	for _, id := range r.order {
		posts = append(posts, copyPost(r.posts[id]))
	}
	return posts, nil
}

func (r *memoryPostRepository) ListDue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*models.ScheduledPost
	for _, id := range r.order {
		post := r.posts[id]
		if post.Status == models.PostStatusScheduled && !post.ScheduledAt.After(before) {
			due = append(due, copyPost(post))
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	return due, nil
}

func (r *memoryPostRepository) Claim(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusScheduled {
		return false, nil
	}
	post.Status = models.PostStatusPublishing
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryPostRepository) UpdateStatus(ctx context.Context, id, status string, results []models.PublishResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return ErrNotFound
	}
	post.Status = status
	post.Results = append([]models.PublishResult(nil), results...)
	post.UpdatedAt = time.Now()
	return nil
}

type memorySocialAccountRepository struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*models.SocialAccount
}

func NewMemorySocialAccountRepository() SocialAccountRepository {
	return &memorySocialAccountRepository{accounts: make(map[int64]*models.SocialAccount)}
}

func (r *memorySocialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, existing := range r.accounts {
		if existing.Platform == sa.Platform && existing.AccountID == sa.AccountID {
			cp := *sa
			cp.ID, cp.CreatedAt, cp.UpdatedAt = id, existing.CreatedAt, now
			r.accounts[id] = &cp
			return id, nil
		}
	}

	r.nextID++
	cp := *sa
	cp.ID, cp.CreatedAt, cp.UpdatedAt = r.nextID, now, now
	r.accounts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memorySocialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sa, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *sa
	return &cp, nil
}

func (r *memorySocialAccountRepository) GetByPlatform(ctx context.Context, platform, accountID string) (*models.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.SocialAccount
	for _, sa := range r.accounts {
		if sa.Platform != platform || (accountID != "" && sa.AccountID != accountID) {
			continue
		}
		if latest == nil || sa.UpdatedAt.After(latest.UpdatedAt) || (sa.UpdatedAt.Equal(latest.UpdatedAt) && sa.ID > latest.ID) {
			latest = sa
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *memorySocialAccountRepository) List(ctx context.Context) ([]*models.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*models.SocialAccount, 0, len(r.accounts))
	for _, sa := range r.accounts {
		cp := *sa
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *memorySocialAccountRepository) SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if sa.AccessToken != "" {
		existing.AccessToken = sa.AccessToken
	}
	if sa.RefreshToken != "" {
		existing.RefreshToken = sa.RefreshToken
	}
	existing.TokenExpiresAt = sa.TokenExpiresAt
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *memorySocialAccountRepository) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}
