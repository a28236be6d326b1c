package ws

import (
	"context"
	"sync"
	"time"

	"consult-signaling/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter caps concurrent connections per user.
type Limiter interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// RedisLimiter shares the cap across every node using the same Redis.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: 12 * time.Hour}
}

func (l *RedisLimiter) Acquire(ctx context.Context, userID string) (bool, error) {
	return utils.AcquireSlot(ctx, l.rdb, slotKey(userID), l.limit, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, userID string) error {
	return utils.ReleaseSlot(ctx, l.rdb, slotKey(userID))
}

func slotKey(userID string) string { return "signaling:conns:" + userID }

// LocalLimiter is the single-node cap used when Redis is not configured.
type LocalLimiter struct {
	limit int

	mu    sync.Mutex
	count map[string]int
}

func NewLocalLimiter(limit int) *LocalLimiter {
	return &LocalLimiter{limit: limit, count: make(map[string]int)}
}

func (l *LocalLimiter) Acquire(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count[userID] >= l.limit {
		return false, nil
	}
	l.count[userID]++
	return true, nil
}

func (l *LocalLimiter) Release(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count[userID] <= 1 {
		delete(l.count, userID)
		return nil
	}
	l.count[userID]--
	return nil
}
