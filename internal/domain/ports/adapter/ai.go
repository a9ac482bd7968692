package adapter

import (
	"context"

	"telegram-ai-relay/internal/domain/model"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Reply is what the backend returns for one prompt.
type Reply struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Usage          Usage  `json:"-"`
}

// ConversationBackend is the port for the remote conversational AI. It owns a
// single conversation shared by every chat the process serves.
type ConversationBackend interface {
	// Name identifies the provider for logs and metrics.
	Name() string

	// Reset forgets all prior turns.
	Reset(ctx context.Context) error

	// Refresh obtains a fresh session credential and mints a new session id.
	Refresh(ctx context.Context) error

	// Ask sends prompt as the next user turn and returns the assistant text.
	Ask(ctx context.Context, prompt string) (Reply, error)

	Session() model.ConversationSession
}
