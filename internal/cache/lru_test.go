package cache

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if s := c.Stats(); s.Evictions != 1 || s.Size != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	now = now.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
}

func TestLRUCache_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRUCache[int](10, 0)
	c.now = func() time.Time { return now }
	c.Set("k", 1)
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry without ttl expired")
	}
	if c.CleanExpired() != 0 {
		t.Fatal("nothing should be cleaned")
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.Set("tasks", 1)
	c.Set("tasks:filtered", 2)
	c.Set("budgets", 3)

	if n := c.DeletePrefix("tasks"); n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatal("clear left entries")
	}
}

func TestManager_StartStop(t *testing.T) {
	c := NewLRUCache[int](10, time.Nanosecond)
	c.Set("k", 1)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	if c.Size() != 0 {
		t.Fatal("manager did not clean expired entry")
	}
}
