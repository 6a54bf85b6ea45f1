package services

import (
	"context"
	"encoding/json"
	"sync"
)

// MockOracle is a mock implementation of Oracle for testing. Behavior is
// controlled through the function fields; every call is recorded.
type MockOracle struct {
	GenerateTextFunc   func(ctx context.Context, prompt string) (string, error)
	GenerateObjectFunc func(ctx context.Context, prompt string, out any) error

	// Track calls for testing
	GenerateTextCalls   []string
	GenerateObjectCalls []string

	mu sync.Mutex // protects all fields above
}

// Ensure MockOracle implements Oracle interface
var _ Oracle = (*MockOracle)(nil)

// NewMockOracle creates a new mock oracle.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		GenerateTextCalls:   make([]string, 0),
		GenerateObjectCalls: make([]string, 0),
	}
}

// GenerateText mocks prose generation. Default behavior returns a fixed
// line of narration.
func (m *MockOracle) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateTextCalls = append(m.GenerateTextCalls, prompt)
	fn := m.GenerateTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "The scene unfolds quietly.", nil
}

// GenerateObject mocks object generation. Default behavior is ErrNoObject.
func (m *MockOracle) GenerateObject(ctx context.Context, prompt string, out any) error {
	m.mu.Lock()
	m.GenerateObjectCalls = append(m.GenerateObjectCalls, prompt)
	fn := m.GenerateObjectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, out)
	}
	return ErrNoObject
}

// RespondJSON is a helper for GenerateObjectFunc implementations: it
// unmarshals the given JSON into the caller's out value.
func RespondJSON(raw string, out any) error {
	return json.Unmarshal([]byte(raw), out)
}
