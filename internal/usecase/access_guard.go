package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
)

// AllowList is the immutable set of usernames permitted to use the bot.
type AllowList struct {
	users map[string]struct{}
}

// NewAllowList parses entries such as the comma-split ALLOWED_USERS value.
// Whitespace, empty entries and a leading "@" are ignored.
func NewAllowList(entries []string) AllowList {
	users := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		for _, part := range strings.Split(e, ",") {
			name := strings.TrimPrefix(strings.TrimSpace(part), "@")
			if name != "" {
				users[name] = struct{}{}
			}
		}
	}
	return AllowList{users: users}
}

func (a AllowList) Contains(username string) bool {
	if username == "" {
		return false
	}
	_, ok := a.users[username]
	return ok
}

func (a AllowList) Len() int { return len(a.users) }

// DenialText is sent to users that are not allow-listed.
func DenialText(contact string) string {
	return fmt.Sprintf("You are not allowed to use this bot. Contact @%s to get access.", contact)
}

// Guard gates every handler on the allow list.
type Guard struct {
	allow     AllowList
	messenger adapter.Messenger
	denial    string
	log       *zerolog.Logger
}

func NewGuard(allow AllowList, messenger adapter.Messenger, contact string, logger *zerolog.Logger) *Guard {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Guard{allow: allow, messenger: messenger, denial: DenialText(contact), log: logger}
}

// IsAllowed reports whether ev's sender is allow-listed. When it is not, the
// fixed denial text is sent to the originating chat.
func (g *Guard) IsAllowed(ctx context.Context, ev model.Event) bool {
	return g.Check(ctx, ev) == nil
}

// Check is IsAllowed returning domain.ErrNotAllowed on rejection.
func (g *Guard) Check(ctx context.Context, ev model.Event) error {
	if g.Allows(ctx, ev) {
		return nil
	}
	if err := g.messenger.SendMessage(ctx, ev.ChatID, g.denial); err != nil {
		logging.With(ctx, g.log).Warn().Err(err).Msg("send denial failed")
	}
	return domain.ErrNotAllowed
}

// Allows is the silent check for events that are not messages (join
// requests, members leaving): their chat is the group, which must not
// receive the denial text.
func (g *Guard) Allows(ctx context.Context, ev model.Event) bool {
	if g.allow.Contains(ev.Username) {
		return true
	}
	metrics.IncAccessDenied()
	logging.With(ctx, g.log).Info().Int64("user_id", ev.UserID).Str("username", ev.Username).Msg("access denied")
	return false
}
