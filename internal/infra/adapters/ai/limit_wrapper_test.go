package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-ai-relay/internal/domain"
	ai "telegram-ai-relay/internal/infra/adapters/ai"
)

func TestEchoAdapter(t *testing.T) {
	ctx := context.Background()
	e := ai.NewEchoAdapter(0)
	if _, err := e.Ask(ctx, "x"); !errors.Is(err, domain.ErrSessionNotReady) {
		t.Fatalf("want ErrSessionNotReady, got %v", err)
	}
	_ = e.Refresh(ctx)
	r, err := e.Ask(ctx, "hello")
	if err != nil || r.Message != "hello" {
		t.Fatalf("got %+v, %v", r, err)
	}
}

func TestLimitedAI_WaitRespectsContext(t *testing.T) {
	inner := ai.NewEchoAdapter(200 * time.Millisecond)
	_ = inner.Refresh(context.Background())
	l := ai.NewLimitedAI(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = l.Ask(context.Background(), "slow")
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Ask(ctx, "blocked"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded while slot is taken, got %v", err)
	}
	<-done

	if _, err := l.Ask(context.Background(), "free"); err != nil {
		t.Fatalf("slot should be free again: %v", err)
	}
	if l.Name() != "echo" {
		t.Fatalf("name = %q", l.Name())
	}
}

func TestNewLimitedAI_NoLimitReturnsInner(t *testing.T) {
	inner := ai.NewEchoAdapter(0)
	if ai.NewLimitedAI(inner, 0) != inner {
		t.Fatal("limit 0 should not wrap")
	}
}
