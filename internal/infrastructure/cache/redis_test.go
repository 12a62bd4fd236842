package cache

import (
	"context"
	"testing"
	"time"
)

func TestRedis_NilIsBypass(t *testing.T) {
	var r *Redis
	ctx := context.Background()

	var out map[string]string
	hit, err := r.GetJSON(ctx, "k", &out)
	if hit || err != nil {
		t.Fatalf("nil cache must miss silently, got hit=%v err=%v", hit, err)
	}
	if err := r.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatalf("nil cache set must be a no-op, got %v", err)
	}
	if err := r.DeleteByPattern(ctx, "jobs:list:*"); err != nil {
		t.Fatalf("nil cache delete must be a no-op, got %v", err)
	}
	ok, err := r.SetIfNotExists(ctx, "lock", "1", 0)
	if ok || err != nil {
		t.Fatalf("nil cache lock must not be acquired, got ok=%v err=%v", ok, err)
	}
	if r.Available() {
		t.Fatalf("nil cache must report unavailable")
	}
	if err := r.Ping(ctx); err == nil {
		t.Fatalf("nil cache ping must report unavailable")
	}
}

func TestRedis_UnavailableClientIsBypass(t *testing.T) {
	r := NewRedisWithClient(nil, 0, nil)
	if r.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %s", r.ttl)
	}
	if err := r.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestRedis_PubSubUnavailable(t *testing.T) {
	var r *Redis
	if err := r.Publish(context.Background(), "c", []byte("x")); err == nil {
		t.Fatalf("nil cache publish must fail so callers fall back")
	}
	if r.Subscribe(context.Background(), "c", func([]byte) {}) {
		t.Fatalf("nil cache must not subscribe")
	}
	if _, err := r.Incr(context.Background(), "v"); err == nil {
		t.Fatalf("nil cache incr must fail so callers skip caching")
	}
	if _, err := r.GetInt(context.Background(), "v"); err == nil {
		t.Fatalf("nil cache get must fail so callers skip caching")
	}
}
