// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"sync"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Markdown bool
}

// memMessenger records outbound messages.
type memMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	approved []int64
	sendErr  error
}

func (m *memMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return m.sendErr
}

func (m *memMessenger) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Markdown: true})
	return m.sendErr
}

func (m *memMessenger) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, userID)
	return nil
}

func (m *memMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Text)
	}
	return out
}

// fakeBackend answers with a fixed reply or error and records prompts.
type fakeBackend struct {
	mu         sync.Mutex
	reply      adapter.Reply
	err        error
	prompts    []string
	resets     int
	refreshes  int
	resetErr   error
	refreshErr error
	calls      []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.calls = append(f.calls, "reset")
	return f.resetErr
}

func (f *fakeBackend) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.calls = append(f.calls, "refresh")
	return f.refreshErr
}

func (f *fakeBackend) Ask(ctx context.Context, prompt string) (adapter.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.calls = append(f.calls, "ask")
	return f.reply, f.err
}

func (f *fakeBackend) Session() model.ConversationSession {
	return model.ConversationSession{ID: "sess-1", Provider: "fake"}
}

// memMemberRepo stores the last saved list and counts writes.
type memMemberRepo struct {
	mu      sync.Mutex
	names   []string
	saves   int
	loadErr error
	saveErr error
}

func (m *memMemberRepo) Load(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out, nil
}

func (m *memMemberRepo) Save(ctx context.Context, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.names = append([]string(nil), names...)
	return nil
}

var errBoom = errors.New("boom")
