package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard is the Guard used when Redis is configured. SET NX with the
// window as TTL gives the same semantics as MemoryGuard (a duplicate does
// not refresh the TTL) while keeping memory bounded by Redis itself.
type RedisGuard struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisGuard(rdb *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, window: window}
}

func (g *RedisGuard) Check(ctx context.Context, recipient, fingerprint string) (bool, error) {
	k := fmt.Sprintf("dedup:%s:%s", recipient, fingerprint)
	ok, err := g.rdb.SetNX(ctx, k, 1, g.window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
