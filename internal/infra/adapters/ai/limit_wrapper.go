package ai

import (
	"context"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ConversationBackend = (*limitedAI)(nil)

type limitedAI struct {
	inner adapter.ConversationBackend
	sem   chan struct{}
}

// NewLimitedAI caps concurrent Ask calls. Waiting callers give up when
// their context ends.
func NewLimitedAI(inner adapter.ConversationBackend, maxConcurrent int) adapter.ConversationBackend {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Name() string { return l.inner.Name() }

func (l *limitedAI) Reset(ctx context.Context) error { return l.inner.Reset(ctx) }

func (l *limitedAI) Refresh(ctx context.Context) error { return l.inner.Refresh(ctx) }

func (l *limitedAI) Session() model.ConversationSession { return l.inner.Session() }

func (l *limitedAI) Ask(ctx context.Context, prompt string) (adapter.Reply, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.Reply{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Ask(ctx, prompt)
}
