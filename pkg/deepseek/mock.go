package deepseek

import (
	"context"
	"sync"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// MockClient replays canned results in order, repeating the last one. It is
// used by the advise command's dry-run mode and by tests.
type MockClient struct {
	ModelName string

	mu          sync.Mutex
	advice      []MockAdvice
	weekly      []MockWeekly
	adviceCalls int
	weeklyCalls int
	prompts     []string
}

// MockAdvice is one canned FetchAdvice result
type MockAdvice struct {
	Payload models.AdvicePayload
	Err     error
}

// MockWeekly is one canned FetchWeeklyInsight result
type MockWeekly struct {
	Payload models.WeeklyInsightPayload
	Err     error
}

// NewMockClient creates a mock that answers with the given results
func NewMockClient(advice []MockAdvice, weekly []MockWeekly) *MockClient {
	return &MockClient{ModelName: "mock", advice: advice, weekly: weekly}
}

func (m *MockClient) Model() string { return m.ModelName }

func (m *MockClient) FetchAdvice(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.AdvicePayload, error) {
	if err := ctx.Err(); err != nil {
		return models.AdvicePayload{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, userPrompt)
	if apiKey == "" {
		return models.AdvicePayload{}, ErrMissingAPIKey
	}
	if len(m.advice) == 0 {
		return models.AdvicePayload{Observations: []string{"mock observation"}, Actions: []string{"mock action"}}, nil
	}
	r := m.advice[min(m.adviceCalls, len(m.advice)-1)]
	m.adviceCalls++
	return r.Payload.Clone(), r.Err
}

func (m *MockClient) FetchWeeklyInsight(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.WeeklyInsightPayload, error) {
	if err := ctx.Err(); err != nil {
		return models.WeeklyInsightPayload{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, userPrompt)
	if apiKey == "" {
		return models.WeeklyInsightPayload{}, ErrMissingAPIKey
	}
	if len(m.weekly) == 0 {
		return models.WeeklyInsightPayload{}, formatErr("no canned weekly insight", nil)
	}
	r := m.weekly[min(m.weeklyCalls, len(m.weekly)-1)]
	m.weeklyCalls++
	return r.Payload, r.Err
}

// AdviceCalls returns how many times FetchAdvice was answered
func (m *MockClient) AdviceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adviceCalls
}

// WeeklyCalls returns how many times FetchWeeklyInsight was answered
func (m *MockClient) WeeklyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.weeklyCalls
}

// Prompts returns the user prompts received so far
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
