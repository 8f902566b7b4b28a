package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, enabled bool) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, time.Minute, enabled), srv
}

func TestKeyStableAndDistinct(t *testing.T) {
	a := Key("articles", "source=rappler", "limit=50")
	b := Key("articles", "source=rappler", "limit=50")
	c := Key("articles", "source=gma", "limit=50")

	if a != b {
		t.Error("same params must produce the same key")
	}
	if a == c {
		t.Error("different params must produce different keys")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, true)
	ctx := context.Background()
	key := Key("trends", "days=7")

	type payload struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	}

	var miss payload
	if cache.Get(ctx, key, &miss) {
		t.Fatal("expected a miss on a cold cache")
	}

	cache.Set(ctx, key, payload{Count: 3, Names: []string{"a", "b"}})

	var hit payload
	if !cache.Get(ctx, key, &hit) {
		t.Fatal("expected a hit after Set")
	}
	if hit.Count != 3 || len(hit.Names) != 2 {
		t.Errorf("hit = %+v", hit)
	}
}

func TestEntriesExpire(t *testing.T) {
	cache, srv := newTestCache(t, true)
	ctx := context.Background()
	key := Key("bias", "")

	cache.Set(ctx, key, map[string]int{"n": 1})
	srv.FastForward(2 * time.Minute)

	var out map[string]int
	if cache.Get(ctx, key, &out) {
		t.Error("expected a miss after TTL expiry")
	}
}

func TestDisabledCacheMissesEverything(t *testing.T) {
	cache, _ := newTestCache(t, false)
	ctx := context.Background()
	key := Key("articles", "")

	cache.Set(ctx, key, map[string]int{"n": 1})

	var out map[string]int
	if cache.Get(ctx, key, &out) {
		t.Error("disabled cache must never hit")
	}
}

func TestNilCacheSafe(t *testing.T) {
	var cache *Cache
	var out int
	if cache.Get(context.Background(), "k", &out) {
		t.Error("nil cache must miss")
	}
	cache.Set(context.Background(), "k", 1)
}
