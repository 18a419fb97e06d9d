package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted Provider for tests. CompleteFunc receives the
// 1-based call number alongside the request; when nil, Complete returns
// Response unchanged.
type MockProvider struct {
	CompleteFunc func(call int, req *Request) (string, error)
	Response     string

	mu       sync.Mutex
	calls    int
	requests []*Request
}

// Complete records the call and returns the scripted result.
func (m *MockProvider) Complete(_ context.Context, req *Request) (string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(call, req)
	}
	return m.Response, nil
}

// Calls returns the number of Complete invocations so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the recorded requests in call order.
func (m *MockProvider) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}
