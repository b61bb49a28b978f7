package llm

import (
	"context"
	"sync"

	"maswada-backend/application/ports"
)

// MockProvider returns canned responses. It backs local development without
// an API key and the service tests.
type MockProvider struct {
	mu       sync.Mutex
	Response string
	Err      error
	// Respond, when set, computes the response from the request.
	Respond  func(req ports.CompletionRequest) (string, error)
	requests []ports.CompletionRequest
}

// NewMockProvider returns a provider answering every request with response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	respond, response, err := m.Respond, m.Response, m.Err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(req)
	}
	return response, err
}

func (m *MockProvider) IsAvailable() bool { return true }

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []ports.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of requests received.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
