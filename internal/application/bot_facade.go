package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/usecase"
)

const (
	HelpText  = "Help!"
	ResetText = "Yep, I don't remember a thing."
)

// BotFacade composes usecases into the bot's command handlers.
// Every handler runs the access guard first; a denied event has no further effect.
// Join and leave events are denied silently since their chat is the group.
// Membership is nil for the private bot.
type BotFacade struct {
	Guard      GuardIface
	Relay      RelayIface
	Membership MembershipIface
	Session    SessionIface
	Messenger  adapter.Messenger

	approveJoins bool
	log          *zerolog.Logger
}

type Option func(*BotFacade)

// WithJoinApproval approves join requests from allowed users via the Bot API.
func WithJoinApproval(on bool) Option { return func(b *BotFacade) { b.approveJoins = on } }

func WithLogger(l *zerolog.Logger) Option { return func(b *BotFacade) { b.log = l } }

func NewBotFacade(guard GuardIface, relay RelayIface, membership MembershipIface, session SessionIface, messenger adapter.Messenger, opts ...Option) *BotFacade {
	b := &BotFacade{
		Guard:      guard,
		Relay:      relay,
		Membership: membership,
		Session:    session,
		Messenger:  messenger,
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// HandleStart greets the user with a MarkdownV2 mention.
func (b *BotFacade) HandleStart(ctx context.Context, ev model.Event) error {
	if !b.Guard.IsAllowed(ctx, ev) {
		return nil
	}
	return b.Messenger.SendMarkdown(ctx, ev.ChatID, "Hi "+mentionMarkdownV2(ev)+`\!`)
}

func (b *BotFacade) HandleHelp(ctx context.Context, ev model.Event) error {
	if !b.Guard.IsAllowed(ctx, ev) {
		return nil
	}
	return b.Messenger.SendMessage(ctx, ev.ChatID, HelpText)
}

// HandleReset forgets the conversation and refreshes the backend session.
func (b *BotFacade) HandleReset(ctx context.Context, ev model.Event) error {
	if !b.Guard.IsAllowed(ctx, ev) {
		return nil
	}
	if err := b.Session.Renew(ctx); err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("reset failed")
		return b.Messenger.SendMessage(ctx, ev.ChatID, usecase.ApologyText)
	}
	return b.Messenger.SendMessage(ctx, ev.ChatID, ResetText)
}

// HandleChat relays a message to the backend. Relay failures are answered
// with the apology text inside the relay and are not returned.
func (b *BotFacade) HandleChat(ctx context.Context, ev model.Event) error {
	if !b.Guard.IsAllowed(ctx, ev) {
		return nil
	}
	b.Relay.Reply(ctx, ev)
	return nil
}

// HandleJoin records the requester's first name as a member.
func (b *BotFacade) HandleJoin(ctx context.Context, ev model.Event) error {
	if b.Membership == nil {
		return errors.New("membership not available")
	}
	if !b.Guard.Allows(ctx, ev) {
		return nil
	}
	if _, err := b.Membership.Add(ctx, ev.FirstName); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if b.approveJoins {
		if err := b.Messenger.ApproveJoinRequest(ctx, ev.ChatID, ev.UserID); err != nil {
			return fmt.Errorf("approve join request: %w", err)
		}
	}
	return nil
}

// HandleLeave removes the leaving user's first name.
func (b *BotFacade) HandleLeave(ctx context.Context, ev model.Event) error {
	if b.Membership == nil {
		return errors.New("membership not available")
	}
	if !b.Guard.Allows(ctx, ev) {
		return nil
	}
	if _, err := b.Membership.Remove(ctx, ev.FirstName); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// HandleMembers lists the current members.
func (b *BotFacade) HandleMembers(ctx context.Context, ev model.Event) error {
	if b.Membership == nil {
		return errors.New("membership not available")
	}
	if !b.Guard.IsAllowed(ctx, ev) {
		return nil
	}
	names := b.Membership.Members()
	if len(names) == 0 {
		return b.Messenger.SendMessage(ctx, ev.ChatID, "No members yet.")
	}
	var sb strings.Builder
	sb.WriteString("Members:\n")
	for _, n := range names {
		sb.WriteString("- " + n + "\n")
	}
	return b.Messenger.SendMessage(ctx, ev.ChatID, strings.TrimRight(sb.String(), "\n"))
}

func mentionMarkdownV2(ev model.Event) string {
	name := ev.FirstName
	if name == "" {
		name = ev.Username
	}
	return "[" + tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, name) + "](tg://user?id=" + strconv.FormatInt(ev.UserID, 10) + ")"
}
