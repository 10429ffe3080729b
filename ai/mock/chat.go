package mock

import (
	"context"
	"sync"

	"github.com/poiesic/storefront/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It records every request and replies with Reply unless CompleteFunc is set.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, messages []ai.Message) (string, error)

	// Reply is returned when CompleteFunc is nil.
	Reply string

	mu       sync.Mutex
	requests [][]ai.Message
}

// NewMockChatModel creates a mock chat model with a fixed reply.
func NewMockChatModel(reply string) *MockChatModel {
	return &MockChatModel{Reply: reply}
}

// Complete records the messages and returns the configured reply.
func (m *MockChatModel) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	copied := make([]ai.Message, len(messages))
	copy(copied, messages)
	m.requests = append(m.requests, copied)
	fn := m.CompleteFunc
	reply := m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return reply, nil
}

// Requests returns every message list passed to Complete.
func (m *MockChatModel) Requests() [][]ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// LastRequest returns the most recent message list, or nil.
func (m *MockChatModel) LastRequest() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// CallCount returns the number of Complete calls.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
