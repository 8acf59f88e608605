// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
}

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Add("a", "", 1)
	c.Add("b", "", 2)
	c.Add("c", "", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	c.Add("a", "", 10)
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("Get(a) after replace = %d, want 10", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() after replace = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	c.Add("a", "", "a")
	c.Add("b", "", "b")
	c.Add("c", "", "c")

	// 'a' becomes most recently used, leaving 'b' at the tail.
	c.Get("a")
	c.Add("d", "", "d")

	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	clock := newClock()
	c := NewLRU[int](10, time.Minute, WithClock(clock.Now))

	c.Add("a", "", 1)
	clock.Advance(30 * time.Second)
	c.Add("b", "", 2)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("'a' expired early")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expected 'a' to have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected 'b' to be live")
	}

	clock.Advance(time.Minute)
	c.Add("c", "", 3)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_RemoveTag(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		removed  int
		survivor []string
	}{
		{"single tag", []string{"alice"}, 2, []string{"bob:1", "carol:1"}},
		{"several tags", []string{"alice", "carol"}, 3, []string{"bob:1"}},
		{"unknown tag", []string{"dave"}, 0, []string{"alice:1", "alice:2", "bob:1", "carol:1"}},
		{"no tags", nil, 0, []string{"alice:1", "alice:2", "bob:1", "carol:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLRU[int](10, time.Minute)
			c.Add("alice:1", "alice", 1)
			c.Add("alice:2", "alice", 2)
			c.Add("bob:1", "bob", 3)
			c.Add("carol:1", "carol", 4)

			if got := c.RemoveTag(tt.tags...); got != tt.removed {
				t.Errorf("RemoveTag(%v) = %d, want %d", tt.tags, got, tt.removed)
			}
			if c.Len() != len(tt.survivor) {
				t.Errorf("Len() = %d, want %d", c.Len(), len(tt.survivor))
			}
			for _, key := range tt.survivor {
				if _, ok := c.Get(key); !ok {
					t.Errorf("expected %q to survive", key)
				}
			}
		})
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("a", "", 1)
	c.Add("b", "", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	// The list must still be usable after Clear.
	c.Add("c", "", 3)
	if _, ok := c.Get("c"); !ok {
		t.Error("Get(c) after Clear failed")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("a", "", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, size 1", stats)
	}
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	if c.capacity != 10000 {
		t.Errorf("capacity = %d, want 10000", c.capacity)
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](100, time.Minute)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			tag := fmt.Sprintf("user-%d", g%3)
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%s:%d", tag, i%50)
				c.Add(key, tag, i)
				c.Get(key)
				if i%40 == 0 {
					c.RemoveTag(tag)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
