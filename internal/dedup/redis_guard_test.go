package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuard(t *testing.T, window time.Duration) (*miniredis.Miniredis, *RedisGuard) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisGuard(rdb, window)
}

func TestRedisGuard_AllowsOncePerWindow(t *testing.T) {
	t.Parallel()

	mr, g := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	ok, err := g.Check(ctx, "1555", "fp")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first check allowed")
	}

	if !mr.Exists("dedup:1555:fp") {
		t.Fatalf("expected dedup key to be recorded")
	}
	if ttl := mr.TTL("dedup:1555:fp"); ttl != 30*time.Second {
		t.Fatalf("expected TTL of 30s, got %v", ttl)
	}

	ok, err = g.Check(ctx, "1555", "fp")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if ok {
		t.Fatalf("expected duplicate inside window rejected")
	}
}

func TestRedisGuard_AllowsAgainAfterExpiry(t *testing.T) {
	t.Parallel()

	mr, g := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	if ok, _ := g.Check(ctx, "1555", "fp"); !ok {
		t.Fatalf("expected first check allowed")
	}

	mr.FastForward(31 * time.Second)

	if ok, _ := g.Check(ctx, "1555", "fp"); !ok {
		t.Fatalf("expected expired key to allow a new send")
	}
}

func TestRedisGuard_DuplicateDoesNotRefreshTTL(t *testing.T) {
	t.Parallel()

	mr, g := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	if ok, _ := g.Check(ctx, "1555", "fp"); !ok {
		t.Fatalf("expected first check allowed")
	}

	mr.FastForward(20 * time.Second)

	if ok, _ := g.Check(ctx, "1555", "fp"); ok {
		t.Fatalf("expected duplicate rejected")
	}
	if ttl := mr.TTL("dedup:1555:fp"); ttl != 10*time.Second {
		t.Fatalf("expected TTL unchanged by the duplicate, got %v", ttl)
	}
}

func TestRedisGuard_RedisDownReturnsError(t *testing.T) {
	t.Parallel()

	mr, g := newRedisGuard(t, 30*time.Second)
	mr.Close()

	if _, err := g.Check(context.Background(), "1555", "fp"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
