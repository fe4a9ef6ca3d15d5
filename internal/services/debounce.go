package services

import (
	"strings"
	"sync"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// BufferDelay is the trailing silence after which a conversation's buffered
// messages are flushed downstream
const BufferDelay = 15 * time.Second

// FlushFunc receives the coalesced messages for one conversation. payload is
// the last received webhook event, raw its unparsed request body, combined
// the space-joined bodies in arrival order.
type FlushFunc func(key string, payload *models.WebhookPayload, raw []byte, combined string)

// DebounceBuffer coalesces rapid-fire inbound messages per conversation.
// Every new message for a pending key cancels the previous flush timer and
// starts a new one, so a flush only happens after BufferDelay of silence.
type DebounceBuffer struct {
	mu      sync.Mutex
	delay   time.Duration
	entries map[string]*debounceEntry
	flush   FlushFunc
}

type debounceEntry struct {
	messages []string
	last     *models.WebhookPayload
	raw      []byte
	timer    *time.Timer
	// gen guards against a stale timer callback that lost the race with a
	// reschedule: it already fired but had not yet taken the lock
	gen uint64
}

// NewDebounceBuffer creates a buffer flushing after delay of silence
func NewDebounceBuffer(delay time.Duration, flush FlushFunc) *DebounceBuffer {
	return &DebounceBuffer{
		delay:   delay,
		entries: make(map[string]*debounceEntry),
		flush:   flush,
	}
}

// Append adds the payload's message body to the conversation's buffer and
// reschedules its flush. raw is the unparsed request body; it is copied
// because transport buffers are reused between requests.
func (b *DebounceBuffer) Append(key string, payload *models.WebhookPayload, raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, exists := b.entries[key]
	if exists {
		e.timer.Stop()
		e.messages = append(e.messages, payload.Data.Body)
	} else {
		e = &debounceEntry{messages: []string{payload.Data.Body}}
		b.entries[key] = e
	}
	e.last = payload
	e.raw = append([]byte(nil), raw...)
	e.gen++

	gen := e.gen
	e.timer = time.AfterFunc(b.delay, func() {
		b.fire(key, gen)
	})
}

// Pending reports whether the conversation currently has buffered messages
func (b *DebounceBuffer) Pending(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[key]
	return ok
}

func (b *DebounceBuffer) fire(key string, gen uint64) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok || e.gen != gen {
		// Entry was flushed or rescheduled after this timer was armed
		b.mu.Unlock()
		return
	}
	delete(b.entries, key)
	b.mu.Unlock()

	combined := strings.Join(e.messages, " ")
	b.flush(key, e.last, e.raw, combined)
}
