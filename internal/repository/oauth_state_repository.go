package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OAuthStateRepository remembers issued OAuth states so each one is accepted
// by exactly one callback.
type OAuthStateRepository interface {
	Save(ctx context.Context, state, platform string, ttl time.Duration) error
	// Consume deletes state and returns the platform it was issued for.
	Consume(ctx context.Context, state string) (platform string, ok bool, err error)
}

const stateKeyPrefix = "crosspost:oauth:state:"

type redisStateRepository struct {
	client *redis.Client
}

func NewRedisStateRepository(client *redis.Client) OAuthStateRepository {
	return &redisStateRepository{client: client}
}

func (r *redisStateRepository) Save(ctx context.Context, state, platform string, ttl time.Duration) error {
	return r.client.Set(ctx, stateKeyPrefix+state, platform, ttl).Err()
}

func (r *redisStateRepository) Consume(ctx context.Context, state string) (string, bool, error) {
	platform, err := r.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return platform, true, nil
}

type stateEntry struct {
	platform  string
	expiresAt time.Time
}

type memoryStateRepository struct {
	mu     sync.Mutex
	states map[string]stateEntry
	now    func() time.Time
}

func NewMemoryStateRepository() OAuthStateRepository {
	return &memoryStateRepository{states: make(map[string]stateEntry), now: time.Now}
}

func (r *memoryStateRepository) Save(ctx context.Context, state, platform string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, entry := range r.states {
		if now.After(entry.expiresAt) {
			delete(r.states, key)
		}
	}
	r.states[state] = stateEntry{platform: platform, expiresAt: now.Add(ttl)}
	return nil
}

func (r *memoryStateRepository) Consume(ctx context.Context, state string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.states[state]
	if !ok {
		return "", false, nil
	}
	delete(r.states, state)
	if r.now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.platform, true, nil
}
