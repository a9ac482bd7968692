// Package bootstrap wires configuration into a running bot. Both binaries
// share it and differ only in the Variant they pass.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/application"
	"telegram-ai-relay/internal/config"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/domain/ports/repository"
	aiAdapters "telegram-ai-relay/internal/infra/adapters/ai"
	tele "telegram-ai-relay/internal/infra/adapters/telegram"
	pg "telegram-ai-relay/internal/infra/db/postgres"
	httpapi "telegram-ai-relay/internal/infra/http"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
	red "telegram-ai-relay/internal/infra/redis"
	"telegram-ai-relay/internal/infra/storage"
	"telegram-ai-relay/internal/infra/worker"
	"telegram-ai-relay/internal/usecase"
)

type Variant string

const (
	Private Variant = "private"
	Group   Variant = "group"
)

type BuildInfo struct {
	Version string
	Commit  string
}

// Run blocks until ctx is cancelled. Startup failures (backend, Telegram
// token, member store) are returned before any update is processed.
func Run(ctx context.Context, cfg *config.Config, variant Variant, build BuildInfo, log *zerolog.Logger) error {
	if log == nil {
		log = logging.Nop()
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(build.Version, build.Commit, string(variant))

	// ---- AI backend ----
	backend, err := NewBackend(cfg.AI)
	if err != nil {
		return fmt.Errorf("ai backend: %w", err)
	}
	backend = aiAdapters.NewLimitedAI(backend, cfg.AI.ConcurrentLimit)
	log.Info().Str("provider", backend.Name()).Str("model", cfg.AI.Model).Msg("AI adapter configured")

	// ---- Telegram ----
	bot, err := tele.NewBotAPI(cfg.Bot.Token, cfg.Bot.Debug)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Str("variant", string(variant)).Msg("authorized on telegram")
	messenger := tele.NewMessenger(bot)

	// ---- Redis (optional) ----
	var redisClient red.RedisClient
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer c.Close()
		redisClient = c
	}
	var limiter tele.RateLimiter
	if redisClient != nil && cfg.Bot.RateLimit > 0 {
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Use cases ----
	guard := usecase.NewGuard(usecase.NewAllowList(cfg.Bot.AllowedUsers), messenger, cfg.Bot.Contact, log)
	session := usecase.NewSessionUseCase(backend, log)
	relayOpts := []usecase.RelayOption{
		usecase.WithTimeout(cfg.AI.Timeout),
		usecase.WithDev(cfg.Runtime.Dev),
	}

	var routes tele.Routes
	switch variant {
	case Private:
		relay := usecase.NewRelay(backend, messenger, usecase.PrivatePrompt, log,
			append(relayOpts, usecase.WithEcho(cfg.Bot.EchoPrompt))...)
		facade := application.NewBotFacade(guard, relay, nil, session, messenger, application.WithLogger(log))
		routes = tele.PrivateRoutes(facade)

	case Group:
		repo, closeRepo, err := NewMemberRepo(ctx, cfg, redisClient)
		if err != nil {
			return fmt.Errorf("member store: %w", err)
		}
		defer closeRepo()
		membership := usecase.NewMembershipUseCase(repo, log)
		if err := membership.Load(ctx); err != nil {
			return err
		}
		relay := usecase.NewRelay(backend, messenger, usecase.GroupPrompt, log, relayOpts...)
		facade := application.NewBotFacade(guard, relay, membership, session, messenger,
			application.WithJoinApproval(cfg.Bot.ApproveJoinRequests),
			application.WithLogger(log),
		)
		routes = tele.GroupRoutes(facade)

	default:
		return fmt.Errorf("unknown bot variant %q", variant)
	}

	pool := worker.NewPool(cfg.Bot.Workers, 0, log)
	poller, err := tele.NewPoller(bot, routes, pool, limiter, tele.PollerConfig{
		Timeout:   cfg.Bot.PollTimeout,
		RateLimit: cfg.Bot.RateLimit,
	}, log)
	if err != nil {
		return err
	}

	// ---- HTTP ----
	if !cfg.HTTP.Disabled {
		srv := httpapi.NewServer(cfg.HTTP.Port, func() bool { return backend.Session().Ready() }, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	return session.Start(ctx, poller.Run)
}

// NewBackend selects the conversation backend for cfg.Provider.
func NewBackend(cfg config.AIConfig) (adapter.ConversationBackend, error) {
	switch cfg.Provider {
	case "openai", "":
		return aiAdapters.NewOpenAIAdapter(aiAdapters.OpenAIConfig{
			APIKey:       cfg.OpenAIKey,
			SessionToken: cfg.SessionToken,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			MaxHistory:   cfg.MaxHistory,
			Verify:       cfg.VerifyOnRefresh,
		})
	case "gemini":
		return aiAdapters.NewGeminiAdapter(aiAdapters.GeminiConfig{
			APIKey:       cfg.GeminiKey,
			BaseURL:      cfg.GeminiURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			MaxHistory:   cfg.MaxHistory,
			MaxOut:       cfg.MaxOutputTokens,
			Verify:       cfg.VerifyOnRefresh,
		})
	case "echo":
		return aiAdapters.NewEchoAdapter(0), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

// NewMemberRepo opens the configured member store. The returned func
// releases it.
func NewMemberRepo(ctx context.Context, cfg *config.Config, redisClient red.RedisClient) (repository.MemberRepository, func(), error) {
	noop := func() {}
	switch cfg.Members.Backend {
	case "file", "":
		repo, err := storage.NewFileMemberRepo(cfg.Members.Path)
		return repo, noop, err

	case "redis":
		if redisClient == nil {
			return nil, noop, errors.New("members.backend=redis needs redis.url")
		}
		return red.NewMemberRepo(redisClient, cfg.Members.Key), noop, nil

	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, noop, err
		}
		repo := pg.NewPostgresMemberRepo(pool, cfg.Members.Key)
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(sctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown members backend %q", cfg.Members.Backend)
}
