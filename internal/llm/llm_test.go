package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockProvider records calls and returns canned responses. Err is returned
// for the first FailCount calls, then Response succeeds.
type MockProvider struct {
	mu        sync.Mutex
	Calls     []CompletionRequest
	Response  *CompletionResponse
	Err       error
	FailCount int
	ProvName  string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string { return m.ProvName }

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil && (m.FailCount == 0 || len(m.Calls) <= m.FailCount) {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	for _, p := range []string{"openai", "anthropic"} {
		if _, err := NewProvider(p, "some-model"); err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider("unknown", "some-model"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider("ollama", "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if op.BaseURL() != "http://localhost:11434" {
		t.Errorf("expected default host, got %q", op.BaseURL())
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	provider, err := NewProvider("openai", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

func TestRetryProviderPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rp := NewRetryProvider(mock, time.Second, 2, 10*time.Millisecond)

	resp, err := rp.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
	if rp.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rp.Name())
	}
}

func TestRetryProviderRetriesTransientFailures(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("transient")
	mock.FailCount = 2
	rp := NewRetryProvider(mock, time.Second, 3, time.Millisecond)

	resp, err := rp.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected success after retries, got %q", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetryProviderGivesUpAfterBudget(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("down")
	rp := NewRetryProvider(mock, time.Second, 2, time.Millisecond)

	_, err := rp.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", mock.CallCount())
	}
}

func TestRetryProviderStopsOnCanceledContext(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("down")
	rp := NewRetryProvider(mock, time.Second, 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rp.Complete(ctx, CompletionRequest{})
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
	if mock.CallCount() > 1 {
		t.Errorf("expected at most 1 attempt, got %d", mock.CallCount())
	}
}
