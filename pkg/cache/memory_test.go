package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil || got != "v" {
		t.Fatalf("get: %v, %q", err, got)
	}

	if err := mc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	// non-positive expirations fall back to the long default
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("default expiry should keep the key: %v", err)
	}

	mc.data["k"].expireAt = time.Now().Add(-time.Second)
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	var got string
	_ = mc.Get(ctx, "a", &got) // touch a so b is the LRU entry
	_ = mc.Set(ctx, "c", "3", time.Minute)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatal("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatal("a was touched and must survive")
	}
}

func TestGenerateKeyWithParams(t *testing.T) {
	if k := GenerateKeyWithParams("bars", "AAPL", "3mo"); k != "bars:AAPL:3mo" {
		t.Fatalf("key wrong: %s", k)
	}
}
