package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
	red "telegram-ai-relay/internal/infra/redis"
	"telegram-ai-relay/internal/infra/worker"
)

const rateLimitText = "Rate limit exceeded. Please try again later."

// RateLimiter is satisfied by the redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type PollerConfig struct {
	Timeout   int // long-poll seconds
	RateLimit int // commands per user per minute, 0 disables
}

// Poller long-polls the Bot API and hands each update to the worker pool,
// keyed by chat so a conversation is handled in order.
type Poller struct {
	bot       botAPI
	messenger *Messenger
	routes    Routes
	pool      *worker.Pool
	limiter   RateLimiter
	cfg       PollerConfig
	log       *zerolog.Logger
}

func NewPoller(bot botAPI, routes Routes, pool *worker.Pool, limiter RateLimiter, cfg PollerConfig, logger *zerolog.Logger) (*Poller, error) {
	if bot == nil {
		return nil, errors.New("bot api is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Poller{
		bot:       bot,
		messenger: NewMessenger(bot),
		routes:    routes,
		pool:      pool,
		limiter:   limiter,
		cfg:       cfg,
		log:       logger,
	}, nil
}

// Run blocks until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.cfg.Timeout
	u.AllowedUpdates = []string{"message", "chat_join_request", "chat_member"}
	updates := p.bot.GetUpdatesChan(u)

	p.pool.Start(ctx)
	defer p.pool.Stop()

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			up := up
			err := p.pool.Submit(ctx, chatKey(up), func(ctx context.Context) error {
				return p.handleUpdate(ctx, up)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				p.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("dispatch update")
			}
		}
	}
}

func (p *Poller) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	handler, ev, kind := p.routes.route(up)
	metrics.IncTelegramUpdate(kind)
	if handler == nil {
		return nil
	}

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithChatID(ctx, ev.ChatID)
	ctx = logging.WithUsername(ctx, ev.Username)
	l := logging.With(ctx, p.log)

	if kind == "command" {
		cmd := commandName(ev.Text)
		metrics.IncTelegramCommand(cmd)
		if !p.allow(ctx, l, ev.UserID, cmd) {
			metrics.IncRateLimitTriggered()
			return p.messenger.SendMessage(ctx, ev.ChatID, rateLimitText)
		}
	}

	l.Debug().Str("kind", kind).Msg("handling update")
	if err := handler(ctx, ev); err != nil {
		l.Error().Err(err).Str("kind", kind).Msg("handler failed")
	}
	return nil
}

// allow fails open when the limiter is unreachable.
func (p *Poller) allow(ctx context.Context, l *zerolog.Logger, userID int64, cmd string) bool {
	if p.limiter == nil || p.cfg.RateLimit <= 0 {
		return true
	}
	ok, err := p.limiter.Allow(ctx, red.UserCommandKey(userID, cmd), p.cfg.RateLimit, time.Minute)
	if err != nil {
		l.Warn().Err(err).Msg("rate limit error")
		return true
	}
	return ok
}

func commandName(text string) string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(f[0], "@")
	return cmd
}
