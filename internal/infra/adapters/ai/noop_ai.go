package ai

import (
	"context"
	"time"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

var _ adapter.ConversationBackend = (*EchoAdapter)(nil)

// EchoAdapter answers with the prompt itself. Used for local runs without
// an AI credential.
type EchoAdapter struct {
	conversation
	delay time.Duration
}

func NewEchoAdapter(delay time.Duration) *EchoAdapter {
	e := &EchoAdapter{delay: delay}
	e.setup("echo", "echo", 0)
	return e
}

func (e *EchoAdapter) Name() string { return "echo" }

func (e *EchoAdapter) Reset(ctx context.Context) error {
	e.reset()
	return nil
}

func (e *EchoAdapter) Refresh(ctx context.Context) error {
	e.renew()
	return nil
}

func (e *EchoAdapter) Ask(ctx context.Context, prompt string) (adapter.Reply, error) {
	if !e.Session().Ready() {
		return adapter.Reply{}, domain.ErrSessionNotReady
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return adapter.Reply{}, ctx.Err()
		}
	}
	e.commit(prompt, prompt)
	return adapter.Reply{Message: prompt, ConversationID: e.Session().ID}, nil
}
