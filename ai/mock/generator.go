package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docqa/ai"
)

// DefaultAnswer is returned by MockGenerator when no GenerateFunc is set.
const DefaultAnswer = "mock answer"

// MockGenerator is a test double for ai.Generator.
// It records every prompt it receives and is safe for concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns DefaultAnswer.
	GenerateFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	mu      sync.Mutex
	prompts []string
	options []ai.GenerateOptions
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithGenerateFunc sets GenerateFunc and returns the mock for chaining.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)) *MockGenerator {
	m.GenerateFunc = fn
	return m
}

// Generate records the prompt and returns the injected or default answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, opts)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return DefaultAnswer, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt received, in call order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the options of the most recent call.
func (m *MockGenerator) LastOptions() ai.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return ai.GenerateOptions{}
	}
	return m.options[len(m.options)-1]
}

// Reset clears recorded calls and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.options = nil
	m.GenerateFunc = nil
}
