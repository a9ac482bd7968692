package ai

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

// conversation is the single shared history every backend keeps.
type conversation struct {
	mu         sync.Mutex
	maxHistory int // turns; 0 keeps everything
	history    []adapter.Message
	session    model.ConversationSession
}

func (c *conversation) setup(provider, modelName string, maxHistory int) {
	c.maxHistory = maxHistory
	c.session = model.ConversationSession{Provider: provider, Model: modelName}
}

func (c *conversation) reset() {
	c.mu.Lock()
	c.history = nil
	c.session.Turns = 0
	c.mu.Unlock()
}

// renew mints a fresh session id.
func (c *conversation) renew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	c.session.ID = ulid.Make().String()
	c.session.StartedAt = now
	c.session.RefreshedAt = now
	c.session.Turns = 0
}

// messages returns the history followed by prompt as the next user turn.
func (c *conversation) messages(prompt string) []adapter.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]adapter.Message, 0, len(c.history)+1)
	out = append(out, c.history...)
	return append(out, adapter.Message{Role: "user", Content: prompt})
}

func (c *conversation) commit(prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history,
		adapter.Message{Role: "user", Content: prompt},
		adapter.Message{Role: "assistant", Content: reply},
	)
	if c.maxHistory > 0 && len(c.history) > 2*c.maxHistory {
		c.history = append([]adapter.Message(nil), c.history[len(c.history)-2*c.maxHistory:]...)
	}
	c.session.Turns++
}

func (c *conversation) Session() model.ConversationSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
