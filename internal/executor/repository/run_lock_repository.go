package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-stock-indicator/pkg/common"
	"golang-stock-indicator/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// RunLockRepository guards against two pipeline runs writing the same stores at once.
type RunLockRepository interface {
	// Acquire takes the lock for owner. It reports false without error when another owner holds it.
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	// Release drops the lock if owner still holds it.
	Release(ctx context.Context, owner string) error
}

// releaseScript deletes the key only when it still carries the caller's token, so an expired
// lock taken over by another run is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRunLockRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRunLockRepository creates a lock backed by SET NX with a TTL.
func NewRedisRunLockRepository(client *redis.Client) RunLockRepository {
	return &redisRunLockRepository{client: client, key: common.RedisKeyPipelineLock}
}

func (r *redisRunLockRepository) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return ok, nil
}

func (r *redisRunLockRepository) Release(ctx context.Context, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, owner).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// NewLocalRunLockRepository returns a process-local lock for runs without Redis.
func NewLocalRunLockRepository() RunLockRepository {
	return &localRunLockRepository{}
}

type localRunLockRepository struct {
	mu      sync.Mutex
	owner   string
	expires time.Time
}

func (l *localRunLockRepository) Acquire(_ context.Context, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if l.owner != "" && (l.expires.IsZero() || now.Before(l.expires)) {
		return false, nil
	}
	l.owner = owner
	l.expires = time.Time{}
	if ttl > 0 {
		l.expires = now.Add(ttl)
	}
	return true, nil
}

func (l *localRunLockRepository) Release(_ context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == owner {
		l.owner = ""
	}
	return nil
}
