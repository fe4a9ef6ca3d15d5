package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTTLCache(t *testing.T) {
	t0 := time.Date(2025, 12, 9, 10, 0, 0, 0, time.UTC)

	t.Run("entry is live before the TTL elapses", func(t *testing.T) {
		c := New(5 * time.Minute)
		c.Put("k", t0)

		if !c.IsLive("k", t0) {
			t.Error("expected entry to be live immediately after put")
		}
		if !c.IsLive("k", t0.Add(5*time.Minute-time.Second)) {
			t.Error("expected entry to be live just before TTL")
		}
	})

	t.Run("entry is logically absent at and after the TTL", func(t *testing.T) {
		c := New(5 * time.Minute)
		c.Put("k", t0)

		if c.IsLive("k", t0.Add(5*time.Minute)) {
			t.Error("expected entry to be expired exactly at TTL")
		}
		if c.IsLive("k", t0.Add(time.Hour)) {
			t.Error("expected entry to be expired after TTL")
		}
	})

	t.Run("unknown key is not live", func(t *testing.T) {
		c := New(time.Minute)
		if c.IsLive("missing", t0) {
			t.Error("expected unknown key to be dead")
		}
	})

	t.Run("claim succeeds once while live", func(t *testing.T) {
		c := New(5 * time.Minute)

		if !c.Claim("k", t0) {
			t.Fatal("expected first claim to succeed")
		}
		if c.Claim("k", t0.Add(time.Minute)) {
			t.Error("expected second claim to fail while entry is live")
		}
		if !c.Claim("k", t0.Add(6*time.Minute)) {
			t.Error("expected claim to succeed again after expiry")
		}
	})

	t.Run("claim succeeds again after remove", func(t *testing.T) {
		c := New(5 * time.Minute)
		c.Claim("k", t0)
		c.Remove("k")

		if !c.Claim("k", t0.Add(time.Second)) {
			t.Error("expected claim to succeed after remove")
		}
	})

	t.Run("concurrent claims admit exactly one winner", func(t *testing.T) {
		c := New(5 * time.Minute)

		var wg sync.WaitGroup
		wins := make(chan struct{}, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if c.Claim("k", t0) {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)

		count := 0
		for range wins {
			count++
		}
		if count != 1 {
			t.Errorf("expected exactly 1 winning claim, got %d", count)
		}
	})

	t.Run("sweep removes only expired entries", func(t *testing.T) {
		c := New(5 * time.Minute)
		c.Put("old", t0)
		c.Put("fresh", t0.Add(4*time.Minute))

		removed := c.Sweep(t0.Add(5 * time.Minute))
		if removed != 1 {
			t.Errorf("expected 1 entry removed, got %d", removed)
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 entry remaining, got %d", c.Len())
		}
		if !c.IsLive("fresh", t0.Add(5*time.Minute)) {
			t.Error("expected fresh entry to survive the sweep")
		}
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		c := New(time.Minute)
		c.Put("k", t0)

		c.Sweep(t0.Add(2 * time.Minute))
		if removed := c.Sweep(t0.Add(2 * time.Minute)); removed != 0 {
			t.Errorf("expected second sweep to remove nothing, got %d", removed)
		}
	})

	t.Run("sweep is safe alongside reads and writes", func(t *testing.T) {
		c := New(time.Millisecond)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					key := fmt.Sprintf("k%d-%d", n, j)
					c.Put(key, time.Now())
					c.IsLive(key, time.Now())
					c.Sweep(time.Now())
				}
			}(i)
		}
		wg.Wait()
	})
}
