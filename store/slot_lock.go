package store

import (
	"context"
	"fmt"
	"time"

	"court-reservation/services"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only when it still holds our
// token, so an expired lock reclaimed by another booking attempt is
// never released from under it.
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisSlotLock serializes the conflict-check-then-insert window per
// court across processes with a SETNX lock and TTL backstop.
type RedisSlotLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSlotLock(redisClient *redis.Client, ttl time.Duration) *RedisSlotLock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisSlotLock{redis: redisClient, ttl: ttl}
}

func (l *RedisSlotLock) Acquire(ctx context.Context, courtID string) (func(), error) {
	key := fmt.Sprintf("lock:court:%s", courtID)
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire court lock: %w", err)
	}
	if !ok {
		return nil, services.ErrSlotLocked
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.redis.Eval(ctx, releaseLockScript, []string{key}, token)
	}
	return release, nil
}
