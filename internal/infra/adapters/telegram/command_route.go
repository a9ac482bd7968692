package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ai-relay/internal/application"
	"telegram-ai-relay/internal/domain/model"
)

type Handler func(ctx context.Context, ev model.Event) error

// Routes maps updates to facade handlers. Nil handlers ignore the update.
type Routes struct {
	Commands map[string]Handler
	Text     Handler // plain, non-command messages
	Join     Handler // chat join requests
	Leave    Handler // members leaving or being removed
}

// PrivateRoutes serves the one-to-one bot.
func PrivateRoutes(f *application.BotFacade) Routes {
	return Routes{
		Commands: map[string]Handler{
			"start": f.HandleStart,
			"help":  f.HandleHelp,
			"reset": f.HandleReset,
		},
		Text: f.HandleChat,
	}
}

// GroupRoutes serves the group bot: only /bot reaches the backend.
func GroupRoutes(f *application.BotFacade) Routes {
	return Routes{
		Commands: map[string]Handler{
			"bot":     f.HandleChat,
			"members": f.HandleMembers,
		},
		Join:  f.HandleJoin,
		Leave: f.HandleLeave,
	}
}

// route resolves the handler and event for an update. The kind is used for
// metrics and logs.
func (r Routes) route(up tgbotapi.Update) (Handler, model.Event, string) {
	switch {
	case up.ChatJoinRequest != nil:
		req := up.ChatJoinRequest
		return r.Join, userEvent(req.Chat.ID, &req.From), "join_request"

	case up.ChatMember != nil:
		cm := up.ChatMember
		if cm.NewChatMember.User == nil || !(cm.NewChatMember.HasLeft() || cm.NewChatMember.WasKicked()) {
			return nil, model.Event{}, "chat_member"
		}
		return r.Leave, userEvent(cm.Chat.ID, cm.NewChatMember.User), "leave"

	case up.Message != nil:
		msg := up.Message
		if msg.Chat == nil {
			return nil, model.Event{}, "message"
		}
		if msg.LeftChatMember != nil {
			return r.Leave, userEvent(msg.Chat.ID, msg.LeftChatMember), "leave"
		}
		if msg.From == nil {
			return nil, model.Event{}, "message"
		}
		ev := userEvent(msg.Chat.ID, msg.From)
		ev.Text = msg.Text
		if msg.IsCommand() {
			ev.Args = msg.CommandArguments()
			return r.Commands[msg.Command()], ev, "command"
		}
		if msg.Text == "" {
			return nil, ev, "message"
		}
		return r.Text, ev, "text"
	}
	return nil, model.Event{}, "other"
}

func userEvent(chatID int64, u *tgbotapi.User) model.Event {
	return model.Event{
		ChatID:    chatID,
		UserID:    u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
	}
}

// chatKey picks the ordering key for an update.
func chatKey(up tgbotapi.Update) int64 {
	switch {
	case up.Message != nil && up.Message.Chat != nil:
		return up.Message.Chat.ID
	case up.ChatMember != nil:
		return up.ChatMember.Chat.ID
	case up.ChatJoinRequest != nil:
		return up.ChatJoinRequest.Chat.ID
	}
	return 0
}
