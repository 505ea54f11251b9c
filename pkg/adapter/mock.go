package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
// Errors can be queued to simulate transient or terminal provider failures.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	queuedErrs      []error
	calls           int
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses
// keyed by prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// FailWith queues errors to be returned by subsequent Generate calls, in
// order, before successful responses resume.
func (a *MockAdapter) FailWith(errs ...error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queuedErrs = append(a.queuedErrs, errs...)
}

// Calls reports the number of Generate invocations.
func (a *MockAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic reply for the prompt, or the next queued
// error if one is pending.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*Reply, error) {
	a.mu.Lock()
	a.calls++
	if len(a.queuedErrs) > 0 {
		err := a.queuedErrs[0]
		a.queuedErrs = a.queuedErrs[1:]
		a.mu.Unlock()
		return nil, err
	}
	response, ok := a.responses[prompt]
	a.mu.Unlock()

	if model == "" {
		model = "mock-1"
	}
	if !ok {
		response = fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	}
	return &Reply{Content: response, Adapter: a.Name(), Model: model}, nil
}
