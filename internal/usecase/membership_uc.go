package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/repository"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
)

// MembershipUseCase keeps the group member list in memory and rewrites the
// whole list through the repository after every change.
type MembershipUseCase struct {
	mu   sync.Mutex
	repo repository.MemberRepository
	list *model.MemberList
	log  *zerolog.Logger
}

func NewMembershipUseCase(repo repository.MemberRepository, logger *zerolog.Logger) *MembershipUseCase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MembershipUseCase{repo: repo, list: model.NewMemberList(nil), log: logger}
}

// Load replaces the in-memory list with the stored one.
func (m *MembershipUseCase) Load(ctx context.Context) error {
	names, err := m.repo.Load(ctx)
	if err != nil {
		metrics.IncMemberStoreError("load")
		return fmt.Errorf("%w: load members: %w", domain.ErrStoreUnavailable, err)
	}
	m.mu.Lock()
	m.list = model.NewMemberList(names)
	n := m.list.Len()
	m.mu.Unlock()

	metrics.SetMembers(n)
	m.log.Info().Int("members", n).Msg("members loaded")
	return nil
}

// Add inserts name and persists. Empty names and existing members are no-ops
// that do not touch storage.
func (m *MembershipUseCase) Add(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.list.Add(name) {
		return false, nil
	}
	if err := m.persist(ctx); err != nil {
		m.list.Remove(name)
		return false, err
	}
	logging.With(ctx, m.log).Info().Str("member", name).Msg("member added")
	return true, nil
}

// Remove deletes name and persists. Empty names and non-members are no-ops.
func (m *MembershipUseCase) Remove(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.list.Names()
	if !m.list.Remove(name) {
		return false, nil
	}
	if err := m.persist(ctx); err != nil {
		m.list = model.NewMemberList(before)
		return false, err
	}
	logging.With(ctx, m.log).Info().Str("member", name).Msg("member removed")
	return true, nil
}

// Members returns a snapshot of the current list.
func (m *MembershipUseCase) Members() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Names()
}

// persist must be called with mu held.
func (m *MembershipUseCase) persist(ctx context.Context) error {
	names := m.list.Names()
	if err := m.repo.Save(ctx, names); err != nil {
		metrics.IncMemberStoreError("save")
		return fmt.Errorf("%w: save members: %w", domain.ErrStoreUnavailable, err)
	}
	metrics.SetMembers(len(names))
	return nil
}
