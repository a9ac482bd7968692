// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error
}
