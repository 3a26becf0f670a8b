package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply. Err wins over Content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records requests.
// Once the script runs out it returns KindUnavailable.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockResponse
	requests []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return nil, &Error{Kind: KindUnavailable, Provider: "mock"}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return finish("mock", req, &Response{Content: next.Content, Usage: next.Usage, Model: "mock"})
}

// Push appends replies to the script.
func (m *MockProvider) Push(replies ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
}

// Requests returns a copy of every request seen so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
