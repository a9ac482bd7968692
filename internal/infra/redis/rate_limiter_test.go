package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	rl := NewRateLimiter(cli)
	key := UserCommandKey(42, "/bot")

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil || ok {
		t.Fatalf("4th call should be limited: ok=%v err=%v", ok, err)
	}
	if cli.ttl[key] != time.Minute {
		t.Fatalf("window not set on first hit: %v", cli.ttl[key])
	}
	if key != "rate_limit:42:/bot" {
		t.Fatalf("key = %q", key)
	}
}

func TestRateLimiter_WindowIsPerUserAndCommand(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	rl := NewRateLimiter(cli)

	if ok, _ := rl.Allow(ctx, UserCommandKey(1, "/bot"), 1, time.Minute); !ok {
		t.Fatal("first /bot call should pass")
	}
	if ok, _ := rl.Allow(ctx, UserCommandKey(1, "/bot"), 1, time.Minute); ok {
		t.Fatal("second /bot call should be limited")
	}
	if ok, _ := rl.Allow(ctx, UserCommandKey(1, "/members"), 1, time.Minute); !ok {
		t.Fatal("another command has its own window")
	}
	if ok, _ := rl.Allow(ctx, UserCommandKey(2, "/bot"), 1, time.Minute); !ok {
		t.Fatal("another user has its own window")
	}

	// the window is not extended by later hits
	cli.ttl[UserCommandKey(1, "/bot")] = time.Second
	_, _ = rl.Allow(ctx, UserCommandKey(1, "/bot"), 1, time.Minute)
	if got := cli.ttl[UserCommandKey(1, "/bot")]; got != time.Second {
		t.Fatalf("expire reset on a later hit: %v", got)
	}
}
