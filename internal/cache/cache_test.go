package cache

import (
	"testing"
	"time"
)

func TestLRUCacheBasic(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q ok=%v", v, ok)
	}

	// "b" is now least recently used and gets evicted
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expiry")
	}
	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
}

func TestGenerationInvalidatesKeys(t *testing.T) {
	var g Generation
	c := NewLRUCache[string](10, time.Minute)

	c.Set(g.Key("snapshot"), "old")
	if v, ok := c.Get(g.Key("snapshot")); !ok || v != "old" {
		t.Fatalf("expected hit before bump, got %q ok=%v", v, ok)
	}

	g.Bump()
	if _, ok := c.Get(g.Key("snapshot")); ok {
		t.Fatal("expected miss after generation bump")
	}
}
