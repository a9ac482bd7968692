package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/infra/worker"
)

func TestPoller_DispatchesInChatOrder(t *testing.T) {
	bot := newFakeBot()
	var (
		mu   sync.Mutex
		seen []string
		done = make(chan struct{})
	)
	routes := Routes{Text: func(ctx context.Context, ev model.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.Text)
		if len(seen) == 3 {
			close(done)
		}
		return nil
	}}
	p, err := NewPoller(bot, routes, worker.NewPool(4, 4, nil), nil, PollerConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	alice := &tgbotapi.User{ID: 1, UserName: "alice"}
	for _, text := range []string{"one", "two", "three"} {
		bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, From: alice, Text: text}}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("updates not handled")
	}
	mu.Lock()
	if seen[0] != "one" || seen[1] != "two" || seen[2] != "three" {
		t.Fatalf("order = %v", seen)
	}
	mu.Unlock()

	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if !bot.stopped {
		t.Fatal("polling not stopped")
	}
	if len(bot.config.AllowedUpdates) != 3 {
		t.Fatalf("allowed updates = %v", bot.config.AllowedUpdates)
	}
}

func TestPoller_RateLimitedCommand(t *testing.T) {
	bot := newFakeBot()
	called := false
	routes := Routes{Commands: map[string]Handler{"start": func(ctx context.Context, ev model.Event) error {
		called = true
		return nil
	}}}
	p, _ := NewPoller(bot, routes, worker.NewPool(1, 1, nil), denyLimiter{}, PollerConfig{RateLimit: 1}, nil)

	up := tgbotapi.Update{Message: commandMsg(3, &tgbotapi.User{ID: 3, UserName: "alice"}, "/start")}
	if err := p.handleUpdate(context.Background(), up); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("handler must not run when rate limited")
	}
	if got := bot.texts(); len(got) != 1 || got[0] != rateLimitText {
		t.Fatalf("texts = %v", got)
	}
}

func TestPoller_ClosedChannelEndsRun(t *testing.T) {
	bot := newFakeBot()
	p, _ := NewPoller(bot, Routes{}, worker.NewPool(1, 1, nil), nil, PollerConfig{}, nil)
	close(bot.updates)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run = %v", err)
	}
}

func TestCommandName(t *testing.T) {
	for in, want := range map[string]string{"/bot@relay hi": "/bot", "/start": "/start", "": ""} {
		if got := commandName(in); got != want {
			t.Fatalf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}
