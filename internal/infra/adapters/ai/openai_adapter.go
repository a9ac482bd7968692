package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ConversationBackend = (*OpenAIAdapter)(nil)

type OpenAIConfig struct {
	APIKey       string
	SessionToken string // used when APIKey is empty
	BaseURL      string // e.g. https://api.openai.com/v1
	Model        string
	SystemPrompt string
	MaxHistory   int
	Verify       bool // list models on Refresh to prove the credential works
}

// OpenAIAdapter talks to any Chat Completions compatible endpoint.
type OpenAIAdapter struct {
	conversation
	cfg OpenAIConfig

	clientMu sync.RWMutex
	client   *openai.Client

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

func NewOpenAIAdapter(cfg OpenAIConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" && cfg.SessionToken == "" {
		return nil, fmt.Errorf("%w: openai api key empty", domain.ErrInvalidArgument)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	o := &OpenAIAdapter{cfg: cfg}
	o.setup("openai", cfg.Model, cfg.MaxHistory)
	return o, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Reset(ctx context.Context) error {
	o.reset()
	return nil
}

// Refresh builds a new client from the configured credential.
func (o *OpenAIAdapter) Refresh(ctx context.Context) error {
	cred := o.cfg.APIKey
	if cred == "" {
		cred = o.cfg.SessionToken
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cred),
		option.WithMaxRetries(0),
	}
	if o.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(o.cfg.BaseURL, "/")+"/"))
	}
	client := openai.NewClient(opts...)

	if o.cfg.Verify {
		if _, err := client.Models.List(ctx); err != nil {
			return fmt.Errorf("%w: verify credential: %w", domain.ErrBackend, err)
		}
	}

	o.clientMu.Lock()
	o.client = &client
	o.clientMu.Unlock()
	o.renew()
	return nil
}

func (o *OpenAIAdapter) Ask(ctx context.Context, prompt string) (adapter.Reply, error) {
	o.clientMu.RLock()
	client := o.client
	o.clientMu.RUnlock()
	if client == nil {
		return adapter.Reply{}, domain.ErrSessionNotReady
	}

	msgs := o.messages(prompt)
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.cfg.Model),
		Messages: toOpenAIMessages(o.cfg.SystemPrompt, msgs),
	}
	if id := o.Session().ID; id != "" {
		params.User = openai.String(id)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return adapter.Reply{}, fmt.Errorf("%w: %w", domain.ErrBackend, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return adapter.Reply{}, fmt.Errorf("%w: no choice content", domain.ErrMalformedReply)
	}
	text := resp.Choices[0].Message.Content

	u := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	// compatible gateways often omit usage
	if u.TotalTokens == 0 {
		u.PromptTokens = o.countTokens(msgs)
		u.CompletionTokens = o.countTokens([]adapter.Message{{Content: text}})
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	metrics.ObserveTokens(o.Name(), o.cfg.Model, u.PromptTokens, u.CompletionTokens)

	o.commit(prompt, text)
	return adapter.Reply{Message: text, ConversationID: o.Session().ID, Usage: u}, nil
}

// countTokens estimates with tiktoken. The encoding is loaded on first use
// since it may need to be fetched.
func (o *OpenAIAdapter) countTokens(msgs []adapter.Message) int {
	o.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(o.cfg.Model)
		if err != nil {
			enc, _ = tiktoken.GetEncoding("cl100k_base")
		}
		o.enc = enc
	})
	if o.enc == nil {
		return 0
	}
	n := 0
	for _, m := range msgs {
		n += len(o.enc.Encode(m.Content, nil, nil))
	}
	return n
}

func toOpenAIMessages(system string, msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
