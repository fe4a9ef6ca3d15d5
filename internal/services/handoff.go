package services

import (
	"time"

	"github.com/emyflow/emyflow-backend/internal/cache"
)

const (
	// HandoffLabel marks a conversation as permanently human-managed. It is
	// set on the provider side by the crm_handoff_human tool and only read
	// here from the inbound payload.
	HandoffLabel = "humano"

	// HandoffTimeout is how long the AI stays paused after a human operator
	// message
	HandoffTimeout = 30 * time.Minute
)

// HandoffGuard decides whether automation must be suppressed for a
// conversation after a human operator intervened
type HandoffGuard struct {
	state   *cache.TTLCache
	nowFunc func() time.Time
}

// NewHandoffGuard creates a guard with a fresh suppression state
func NewHandoffGuard() *HandoffGuard {
	return &HandoffGuard{
		state:   cache.New(HandoffTimeout),
		nowFunc: time.Now,
	}
}

// RecordHuman marks the conversation as human-managed as of now
func (g *HandoffGuard) RecordHuman(key string) {
	g.state.Put(key, g.nowFunc())
}

// Suppressed reports whether automation is paused for the conversation.
// Expiry is lazy: an entry past the timeout reads as absent even before the
// periodic sweep removes it.
func (g *HandoffGuard) Suppressed(key string) bool {
	return g.state.IsLive(key, g.nowFunc())
}

// Remaining returns how long the suppression still holds, zero when none
func (g *HandoffGuard) Remaining(key string) time.Duration {
	now := g.nowFunc()
	ts, ok := g.state.Timestamp(key)
	if !ok {
		return 0
	}
	left := HandoffTimeout - now.Sub(ts)
	if left < 0 {
		return 0
	}
	return left
}

// State exposes the backing cache for the periodic sweep job
func (g *HandoffGuard) State() *cache.TTLCache {
	return g.state
}
