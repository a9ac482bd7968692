package model

import "strings"

// Event is the transport-neutral view of one incoming Telegram update.
type Event struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
	// Args holds the text after the command, when the event is a command.
	Args string
}

// DisplayName prefers the first name and falls back to the username.
func (e Event) DisplayName() string {
	if n := strings.TrimSpace(e.FirstName); n != "" {
		return n
	}
	return e.Username
}
