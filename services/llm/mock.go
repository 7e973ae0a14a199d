// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"sync"
)

// MockClient is a mock completion client for testing.
//
// Responses are returned from a queue; when the queue is exhausted the
// default response is returned. All calls are recorded.
//
// Thread Safety:
//
//	MockClient is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// model is the model name reported by Model().
	model string

	// responses are queued responses to return in order.
	responses []string

	// defaultResponse is returned when no queued responses remain.
	defaultResponse string

	// errorToReturn causes Generate to return this error.
	errorToReturn error

	// responseFunc allows dynamic response generation; it takes
	// precedence over the queue when set.
	responseFunc func(prompt string) (string, error)

	// calls records every prompt passed to Generate.
	calls []string
}

// NewMockClient creates a mock client with the given default response.
func NewMockClient(defaultResponse string) *MockClient {
	return &MockClient{
		model:           "mock-model",
		defaultResponse: defaultResponse,
	}
}

// QueueResponse appends a response to the queue.
func (m *MockClient) QueueResponse(response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return m
}

// SetError makes every subsequent Generate call fail with err.
func (m *MockClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorToReturn = err
}

// SetResponseFunc installs a dynamic response generator.
func (m *MockClient) SetResponseFunc(fn func(prompt string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = fn
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)

	if m.errorToReturn != nil {
		return "", m.errorToReturn
	}
	if m.responseFunc != nil {
		return m.responseFunc(prompt)
	}
	if len(m.responses) > 0 {
		response := m.responses[0]
		m.responses = m.responses[1:]
		return response, nil
	}
	return m.defaultResponse, nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	return m.model
}

// CallCount returns the number of Generate calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of all recorded prompts.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
