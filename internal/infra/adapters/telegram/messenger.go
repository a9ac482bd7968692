package telegram

import (
	"context"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/metrics"
)

// maxMessageLen is the Bot API limit for one text message, in characters.
const maxMessageLen = 4096

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewBotAPI authenticates the token against the Bot API.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = debug
	return bot, nil
}

var _ adapter.Messenger = (*Messenger)(nil)

// Messenger sends outgoing messages through the Bot API.
type Messenger struct {
	bot botAPI
}

func NewMessenger(bot botAPI) *Messenger {
	return &Messenger{bot: bot}
}

// SendMessage sends plain text, split into several messages when it is
// longer than Telegram accepts.
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, part := range splitText(text, maxMessageLen) {
		if err := m.send(ctx, tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

// SendMarkdown sends text that is already escaped for MarkdownV2.
func (m *Messenger) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return m.send(ctx, msg)
}

func (m *Messenger) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Request(tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		UserID:     userID,
	})
	if err != nil {
		metrics.IncSendError()
	}
	return err
}

func (m *Messenger) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, err := m.bot.Send(msg); err != nil {
		metrics.IncSendError()
		return err
	}
	return nil
}

// splitText cuts s into chunks of at most n runes, preferring line breaks.
func splitText(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > n {
		cut := n
		for i := n; i > n/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
