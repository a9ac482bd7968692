package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
)

// ApologyText is the only user-visible failure message of the relay.
const ApologyText = "Sorry, something went wrong. Please try again later."

type RelayStatus string

const (
	RelayOK                RelayStatus = "ok"
	RelayBackendError      RelayStatus = "backend_error"
	RelayMalformedResponse RelayStatus = "malformed_response"
)

// RelayResult separates the failure causes that users all see as ApologyText.
type RelayResult struct {
	Status RelayStatus
	Reply  string
	Err    error
}

func (r RelayResult) OK() bool { return r.Status == RelayOK }

// PromptBuilder turns an allowed event into the backend prompt.
type PromptBuilder func(ev model.Event) (string, error)

// PrivatePrompt forwards the raw message text.
func PrivatePrompt(ev model.Event) (string, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return "", domain.ErrEmptyPrompt
	}
	return ev.Text, nil
}

// GroupPrompt attributes the text to its sender: "{name} says: {text}".
// The /bot command (optionally addressed as /bot@name) is stripped.
func GroupPrompt(ev model.Event) (string, error) {
	name := ev.DisplayName()
	if name == "" {
		return "", fmt.Errorf("%w: sender has no name", domain.ErrInvalidArgument)
	}
	text := ev.Args
	if text == "" {
		text = StripCommand(ev.Text, "bot")
	}
	return name + " says: " + text, nil
}

// StripCommand removes a leading "/cmd " or "/cmd@bot " from text.
func StripCommand(text, cmd string) string {
	if !strings.HasPrefix(text, "/"+cmd) {
		return text
	}
	rest := text[len(cmd)+1:]
	if strings.HasPrefix(rest, "@") {
		if i := strings.IndexAny(rest, " \n"); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
	}
	switch {
	case rest == "":
		return ""
	case rest[0] == ' ' || rest[0] == '\n':
		return rest[1:]
	default:
		// "/botanist" is not the /bot command
		return text
	}
}

// Relay forwards allowed messages to the conversation backend.
type Relay struct {
	backend   adapter.ConversationBackend
	messenger adapter.Messenger
	prompt    PromptBuilder
	echo      bool
	timeout   time.Duration
	log       *zerolog.Logger
	dev       bool
}

type RelayOption func(*Relay)

// WithEcho makes the relay repeat the user's text before answering.
func WithEcho(on bool) RelayOption { return func(r *Relay) { r.echo = on } }

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) RelayOption { return func(r *Relay) { r.timeout = d } }

// WithDev disables redaction of message text in logs.
func WithDev(dev bool) RelayOption { return func(r *Relay) { r.dev = dev } }

func NewRelay(backend adapter.ConversationBackend, messenger adapter.Messenger, prompt PromptBuilder, logger *zerolog.Logger, opts ...RelayOption) *Relay {
	if prompt == nil {
		prompt = PrivatePrompt
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Relay{backend: backend, messenger: messenger, prompt: prompt, log: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reply asks the backend and sends its answer, or ApologyText on any
// failure. Errors are logged and reported in the result, never returned.
func (r *Relay) Reply(ctx context.Context, ev model.Event) RelayResult {
	l := logging.With(ctx, r.log)
	defer logging.TraceDuration(l, "Relay.Reply")()

	res := r.ask(ctx, ev)
	if !res.OK() {
		l.Error().Err(res.Err).Str("status", string(res.Status)).Msg("relay failed")
		r.send(ctx, l, ev.ChatID, ApologyText)
		return res
	}
	r.send(ctx, l, ev.ChatID, res.Reply)
	return res
}

func (r *Relay) ask(ctx context.Context, ev model.Event) RelayResult {
	prompt, err := r.prompt(ev)
	if err != nil {
		return RelayResult{Status: RelayBackendError, Err: fmt.Errorf("build prompt: %w", err)}
	}
	if r.echo {
		r.send(ctx, logging.With(ctx, r.log), ev.ChatID, ev.Text)
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := r.backend.Ask(callCtx, prompt)
	res := classify(reply, err)
	metrics.ObserveRelay(r.backend.Name(), string(res.Status), time.Since(start).Milliseconds())
	if res.OK() {
		logging.With(ctx, r.log).Debug().
			Str("prompt", logging.Redact(prompt, r.dev)).
			Int("tokens", reply.Usage.TotalTokens).
			Msg("relay ok")
	}
	return res
}

func classify(reply adapter.Reply, err error) RelayResult {
	switch {
	case errors.Is(err, domain.ErrMalformedReply):
		return RelayResult{Status: RelayMalformedResponse, Err: err}
	case err != nil:
		return RelayResult{Status: RelayBackendError, Err: err}
	case strings.TrimSpace(reply.Message) == "":
		return RelayResult{Status: RelayMalformedResponse, Err: domain.ErrMalformedReply}
	default:
		return RelayResult{Status: RelayOK, Reply: reply.Message}
	}
}

func (r *Relay) send(ctx context.Context, l *zerolog.Logger, chatID int64, text string) {
	if err := r.messenger.SendMessage(ctx, chatID, text); err != nil {
		l.Warn().Err(err).Msg("send reply failed")
	}
}
