package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/metrics"
)

var _ adapter.ConversationBackend = (*GeminiAdapter)(nil)

type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxHistory   int
	MaxOut       int
	Verify       bool
}

// GeminiAdapter uses the official genai SDK with a locally kept history.
type GeminiAdapter struct {
	conversation
	cfg GeminiConfig

	clientMu sync.RWMutex
	client   *genai.Client
}

func NewGeminiAdapter(cfg GeminiConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: empty api key", domain.ErrInvalidArgument)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	g := &GeminiAdapter{cfg: cfg}
	g.setup("gemini", cfg.Model, cfg.MaxHistory)
	return g, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Reset(ctx context.Context) error {
	g.reset()
	return nil
}

func (g *GeminiAdapter) Refresh(ctx context.Context) error {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: g.cfg.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: gemini client: %w", domain.ErrBackend, err)
	}
	if g.cfg.Verify {
		if _, err := c.Models.Get(ctx, g.cfg.Model, nil); err != nil {
			return fmt.Errorf("%w: verify model %s: %w", domain.ErrBackend, g.cfg.Model, err)
		}
	}

	g.clientMu.Lock()
	g.client = c
	g.clientMu.Unlock()
	g.renew()
	return nil
}

func (g *GeminiAdapter) Ask(ctx context.Context, prompt string) (adapter.Reply, error) {
	g.clientMu.RLock()
	client := g.client
	g.clientMu.RUnlock()
	if client == nil {
		return adapter.Reply{}, domain.ErrSessionNotReady
	}

	cfg := &genai.GenerateContentConfig{}
	if g.cfg.MaxOut > 0 {
		cfg.MaxOutputTokens = int32(g.cfg.MaxOut)
	}
	if g.cfg.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.cfg.SystemPrompt}}}
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, toGenAIHistory(g.messages(prompt)), cfg)
	if err != nil {
		return adapter.Reply{}, fmt.Errorf("%w: %w", domain.ErrBackend, err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	if strings.TrimSpace(text) == "" {
		return adapter.Reply{}, fmt.Errorf("%w: gemini returned no text", domain.ErrMalformedReply)
	}

	u := adapter.Usage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	metrics.ObserveTokens(g.Name(), g.cfg.Model, u.PromptTokens, u.CompletionTokens)

	g.commit(prompt, text)
	return adapter.Reply{Message: text, ConversationID: g.Session().ID, Usage: u}, nil
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := string(genai.RoleUser)
		if strings.EqualFold(m.Role, "assistant") || strings.EqualFold(m.Role, "model") {
			role = string(genai.RoleModel)
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}
