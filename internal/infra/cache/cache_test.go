package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("token-1", "board-1")
	val, ok := c.Get("token-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "board-1" {
		t.Errorf("expected 'board-1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("token-1", "board-1")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("token-1"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	c.Set("token-1", 7)
	c.Delete("token-1")

	if _, ok := c.Get("token-1"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_CloseTwice(t *testing.T) {
	c := cache.New[int](0)
	c.Close()
	c.Close()
}
