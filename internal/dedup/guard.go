// Package dedup suppresses duplicate sends of the same logical message
// within a short time window.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Guard records (recipient, fingerprint) pairs and rejects repeats inside
// the configured window.
type Guard interface {
	// Check returns true when the send is allowed and records the attempt.
	// A duplicate inside the window returns false and does not refresh the
	// existing entry, so the key frees up exactly one window after the
	// first attempt.
	Check(ctx context.Context, recipient, fingerprint string) (bool, error)
}

type key struct {
	recipient   string
	fingerprint string
}

// MemoryGuard is the in-process Guard. Expired entries are purged lazily on
// every Check rather than by a background sweep; volume is small enough that
// the scan is cheap.
type MemoryGuard struct {
	window time.Duration

	mu     sync.Mutex
	recent map[key]time.Time

	now func() time.Time
}

func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		window: window,
		recent: make(map[key]time.Time),
		now:    time.Now,
	}
}

func (g *MemoryGuard) Check(_ context.Context, recipient, fingerprint string) (bool, error) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, ts := range g.recent {
		if now.Sub(ts) > g.window {
			delete(g.recent, k)
		}
	}

	k := key{recipient: recipient, fingerprint: fingerprint}
	if _, seen := g.recent[k]; seen {
		return false, nil
	}
	g.recent[k] = now
	return true, nil
}
