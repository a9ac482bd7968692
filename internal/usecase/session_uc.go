package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
)

// SessionUseCase owns the lifecycle of the backend conversation.
type SessionUseCase struct {
	backend adapter.ConversationBackend
	log     *zerolog.Logger
}

func NewSessionUseCase(backend adapter.ConversationBackend, logger *zerolog.Logger) *SessionUseCase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SessionUseCase{backend: backend, log: logger}
}

// Renew forgets the conversation and refreshes the session credential.
func (s *SessionUseCase) Renew(ctx context.Context) error {
	err := s.renew(ctx)
	metrics.IncSessionRefresh(s.backend.Name(), err == nil)
	if err != nil {
		return err
	}
	sess := s.backend.Session()
	logging.With(ctx, s.log).Info().
		Str("provider", s.backend.Name()).
		Str("session_id", sess.ID).
		Msg("conversation session renewed")
	return nil
}

func (s *SessionUseCase) renew(ctx context.Context) error {
	if err := s.backend.Reset(ctx); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	if err := s.backend.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

// Start renews the session once and then runs loop until ctx is cancelled.
// There is no periodic re-refresh. A cancelled context is a clean exit.
func (s *SessionUseCase) Start(ctx context.Context, loop func(context.Context) error) error {
	if err := s.Renew(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("listening for updates")
	err := loop(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
