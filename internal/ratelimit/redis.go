package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares the limit across processes with SET NX and an
// expiry of one interval.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	minInterval time.Duration
}

func NewRedis(client *redis.Client, prefix string, minInterval time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      prefix,
		minInterval: minInterval,
	}
}

// Allow fails open when Redis is unreachable.
func (r *RedisLimiter) Allow(key string) bool {
	if r.minInterval <= 0 {
		return true
	}
	ok, err := r.client.SetNX(context.Background(), r.prefix+key, time.Now().UnixMilli(), r.minInterval).Result()
	if err != nil {
		return true
	}
	return ok
}

func (r *RedisLimiter) Reset(key string) {
	r.client.Del(context.Background(), r.prefix+key)
}

var _ RateLimiter = (*RedisLimiter)(nil)
