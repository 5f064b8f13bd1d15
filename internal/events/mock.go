package events

import (
	"context"
	"sync"
)

// MockPublisher records events for assertions in tests.
type MockPublisher struct {
	mu     sync.Mutex
	events []ScoreComputed
	err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// FailWith makes every subsequent publish return err.
func (m *MockPublisher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockPublisher) PublishScoreComputed(ctx context.Context, event ScoreComputed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// PublishedEvents returns a copy of everything published so far.
func (m *MockPublisher) PublishedEvents() []ScoreComputed {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ScoreComputed, len(m.events))
	copy(out, m.events)
	return out
}
