package xref

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	if _, ok := c.Get(ctx, "chembl:CHEMBL1"); ok {
		t.Error("expected miss on empty cache")
	}
	c.Set(ctx, "chembl:CHEMBL1", "P00001")
	if v, ok := c.Get(ctx, "chembl:CHEMBL1"); !ok || v != "P00001" {
		t.Errorf("expected hit %q, got %q ok=%v", "P00001", v, ok)
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected unreachable redis to behave as a miss")
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("BIOFAN_TEST_REDIS")
	if addr == "" {
		t.Skip("BIOFAN_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	c := NewRedisCache(client, WithPrefix("biofan:test:"), WithTTL(time.Minute))
	ctx := context.Background()

	c.Set(ctx, "chembl:CHEMBL203", "P00533")
	v, ok := c.Get(ctx, "chembl:CHEMBL203")
	if !ok || v != "P00533" {
		t.Errorf("expected %q, got %q ok=%v", "P00533", v, ok)
	}
	client.Del(ctx, "biofan:test:chembl:CHEMBL203")
}
