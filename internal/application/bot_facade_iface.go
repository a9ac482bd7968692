package application

import (
	"context"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.
type GuardIface interface {
	IsAllowed(ctx context.Context, ev model.Event) bool
	Allows(ctx context.Context, ev model.Event) bool
}

type RelayIface interface {
	Reply(ctx context.Context, ev model.Event) usecase.RelayResult
}

type MembershipIface interface {
	Add(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) (bool, error)
	Members() []string
}

type SessionIface interface {
	Renew(ctx context.Context) error
}
