package redis

import (
	"testing"
	"time"

	"github.com/fastygo/kanban/internal/config"
)

func TestOptionsOverrideURL(t *testing.T) {
	opts, err := Options(config.RedisConfig{
		URL:         "redis://:secret@cache:6380/2",
		DB:          5,
		PoolSize:    7,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" {
		t.Fatalf("unexpected url fields: %+v", opts)
	}
	if opts.DB != 5 || opts.PoolSize != 7 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("overrides not applied: db=%d pool=%d dial=%s", opts.DB, opts.PoolSize, opts.DialTimeout)
	}
}

func TestOptionsRejectsBadURL(t *testing.T) {
	if _, err := Options(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatal("expected error for non-redis scheme")
	}
}
