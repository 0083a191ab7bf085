package replay

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an in-process replay guard backed by a mutex-protected map
// of reference -> entry expiry. Suitable for single-instance deployments;
// use RedisGuard when running more than one gateway against the same
// recipient address.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
}

// NewMemoryGuard creates a new in-memory guard with the given protection window.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Seen reports whether the reference is recorded and still inside the window.
func (g *MemoryGuard) Seen(_ context.Context, reference string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.entries[reference]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		// Expired - clean it up
		delete(g.entries, reference)
		return false, nil
	}
	return true, nil
}

// CheckAndRecord atomically records the reference. Returns true when this
// call was the first to record it within the window.
func (g *MemoryGuard) CheckAndRecord(_ context.Context, reference string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if expiry, exists := g.entries[reference]; exists && now.Before(expiry) {
		return false, nil
	}

	g.entries[reference] = now.Add(g.ttl)

	// Lazy cleanup of expired entries
	g.cleanupExpiredLocked(now)

	return true, nil
}

// cleanupExpiredLocked removes expired entries. Must be called with lock held.
func (g *MemoryGuard) cleanupExpiredLocked(now time.Time) {
	for reference, expiry := range g.entries {
		if now.After(expiry) {
			delete(g.entries, reference)
		}
	}
}
