package services

import (
	"sync"
	"testing"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

func inboundPayload(device, phone, body string) *models.WebhookPayload {
	return &models.WebhookPayload{
		Event:  models.EventMessageIn,
		Device: models.DeviceInfo{ID: device},
		Data: &models.MessageData{
			From:       phone + "@c.us",
			FromNumber: phone,
			Body:       body,
			Flow:       "inbound",
		},
	}
}

type flushRecorder struct {
	mu      sync.Mutex
	flushes []flushCall
	done    chan struct{}
}

type flushCall struct {
	key      string
	combined string
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{done: make(chan struct{}, 16)}
}

func (r *flushRecorder) flush(key string, _ *models.WebhookPayload, _ []byte, combined string) {
	r.mu.Lock()
	r.flushes = append(r.flushes, flushCall{key: key, combined: combined})
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *flushRecorder) all() []flushCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]flushCall, len(r.flushes))
	copy(out, r.flushes)
	return out
}

func (r *flushRecorder) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestDebounceBuffer(t *testing.T) {
	t.Run("burst flushes once with bodies joined in order", func(t *testing.T) {
		rec := newFlushRecorder()
		buf := NewDebounceBuffer(40*time.Millisecond, rec.flush)

		buf.Append("d1:555", inboundPayload("d1", "555", "hola"), nil)
		buf.Append("d1:555", inboundPayload("d1", "555", "quiero"), nil)
		buf.Append("d1:555", inboundPayload("d1", "555", "una cita"), nil)

		rec.waitOne(t)
		flushes := rec.all()
		if len(flushes) != 1 {
			t.Fatalf("expected 1 flush, got %d", len(flushes))
		}
		if flushes[0].combined != "hola quiero una cita" {
			t.Errorf("combined = %q", flushes[0].combined)
		}
		if buf.Pending("d1:555") {
			t.Error("entry should be cleared after flush")
		}
	})

	t.Run("new message reschedules the pending flush", func(t *testing.T) {
		rec := newFlushRecorder()
		buf := NewDebounceBuffer(60*time.Millisecond, rec.flush)

		buf.Append("d1:555", inboundPayload("d1", "555", "uno"), nil)
		time.Sleep(40 * time.Millisecond)
		// Still inside the window, timer restarts
		buf.Append("d1:555", inboundPayload("d1", "555", "dos"), nil)
		time.Sleep(40 * time.Millisecond)

		if got := len(rec.all()); got != 0 {
			t.Fatalf("flushed too early: %d flushes", got)
		}

		rec.waitOne(t)
		flushes := rec.all()
		if len(flushes) != 1 || flushes[0].combined != "uno dos" {
			t.Fatalf("flushes = %+v", flushes)
		}
	})

	t.Run("conversations are buffered independently", func(t *testing.T) {
		rec := newFlushRecorder()
		buf := NewDebounceBuffer(40*time.Millisecond, rec.flush)

		buf.Append("d1:111", inboundPayload("d1", "111", "hola"), nil)
		buf.Append("d2:111", inboundPayload("d2", "111", "buenas"), nil)

		rec.waitOne(t)
		rec.waitOne(t)

		flushes := rec.all()
		if len(flushes) != 2 {
			t.Fatalf("expected 2 flushes, got %d", len(flushes))
		}
		seen := map[string]string{}
		for _, f := range flushes {
			seen[f.key] = f.combined
		}
		if seen["d1:111"] != "hola" || seen["d2:111"] != "buenas" {
			t.Errorf("flushes = %v", seen)
		}
	})

	t.Run("message after flush starts a fresh buffer", func(t *testing.T) {
		rec := newFlushRecorder()
		buf := NewDebounceBuffer(30*time.Millisecond, rec.flush)

		buf.Append("d1:555", inboundPayload("d1", "555", "primero"), nil)
		rec.waitOne(t)
		buf.Append("d1:555", inboundPayload("d1", "555", "segundo"), nil)
		rec.waitOne(t)

		flushes := rec.all()
		if len(flushes) != 2 {
			t.Fatalf("expected 2 flushes, got %d", len(flushes))
		}
		if flushes[0].combined != "primero" || flushes[1].combined != "segundo" {
			t.Errorf("flushes = %+v", flushes)
		}
	})
}
