package mock

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
)

// MockChatModel is a test double for llms.Model. Responses are either
// scripted in advance or produced by an injected function.
type MockChatModel struct {
	// GenerateContentFunc is called by GenerateContent if set.
	// If nil, the next scripted response is returned.
	GenerateContentFunc func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)

	responses []*llms.ContentResponse
	callCount int
}

var _ llms.Model = (*MockChatModel)(nil)

// NewMockChatModel creates a mock chat model with the given scripted
// responses, returned in order. Returns the concrete type to allow
// test assertions.
func NewMockChatModel(responses ...*llms.ContentResponse) *MockChatModel {
	return &MockChatModel{responses: responses}
}

// TextResponse builds a ContentResponse with a single text choice.
func TextResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

// ToolCallResponse builds a ContentResponse whose single choice
// requests the given tool calls.
func ToolCallResponse(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{ToolCalls: calls}},
	}
}

// GenerateContent returns the next scripted response.
func (m *MockChatModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.callCount++

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, messages, options...)
	}

	if len(m.responses) == 0 {
		return nil, errors.New("mock chat model: no scripted responses left")
	}

	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

// Call implements the deprecated llms.Model method.
func (m *MockChatModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// CallCount returns the number of times GenerateContent was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}
