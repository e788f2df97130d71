package pipeline

import "sync"

const defaultGuardCapacity = 1024

// Guard refuses re-entry for an already-processed identical job payload.
// It is a safety net against caller-induced recursion, not a business rule.
// The set is bounded: once capacity is reached the oldest hashes are
// evicted first-in-first-out, so memory stays flat over the process
// lifetime while the trigger condition is preserved for recent payloads.
type Guard struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

// NewGuard creates a Guard holding at most capacity payload hashes.
func NewGuard(capacity int) *Guard {
	if capacity <= 0 {
		capacity = defaultGuardCapacity
	}
	return &Guard{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Admit records the hash and reports whether the payload is new. A repeated
// hash is rejected.
func (g *Guard) Admit(hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.seen[hash]; dup {
		return false
	}

	if len(g.order) >= g.capacity {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.seen, oldest)
	}
	g.seen[hash] = struct{}{}
	g.order = append(g.order, hash)
	return true
}
