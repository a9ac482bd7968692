package model

import "time"

// ConversationSession identifies the backend conversation owned by the process.
// It is replaced on every refresh; there is no expiry handling.
type ConversationSession struct {
	ID          string
	Provider    string
	Model       string
	Turns       int
	StartedAt   time.Time
	RefreshedAt time.Time
}

// Ready reports whether the session has been refreshed at least once.
func (s ConversationSession) Ready() bool {
	return s.ID != "" && !s.RefreshedAt.IsZero()
}
