package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*ProfileCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	cache, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create profile cache: %v", err)
	}
	return cache, s
}

func TestNewProfileCache(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	cache, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestGetMissOnEmptyCache(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	if _, ok := cache.Get(context.Background()); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestSetAndGet(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	doc := []byte(`{"name":"Jordan","projects":[]}`)

	cache.Set(ctx, doc)
	got, ok := cache.Get(ctx)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(got) != string(doc) {
		t.Errorf("got %s, want %s", got, doc)
	}
}

func TestInvalidate(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	cache.Set(ctx, []byte(`{}`))
	cache.Invalidate(ctx)

	if _, ok := cache.Get(ctx); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestEntryExpires(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	cache.Set(ctx, []byte(`{}`))

	s.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx); ok {
		t.Error("expected miss after TTL elapsed")
	}
}
