package mock

import "context"

// MockClassifier is a test double for ai.ModelClassifier.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, ModelID is returned.
	ClassifyFunc func(ctx context.Context, query string) (string, error)

	// ModelID is the default classification result.
	ModelID string

	callCount int
}

// NewMockClassifier creates a mock classifier pinned to one model.
// Returns the concrete type to allow test assertions.
func NewMockClassifier(modelID string) *MockClassifier {
	return &MockClassifier{ModelID: modelID}
}

// Classify returns the configured model identifier.
func (m *MockClassifier) Classify(ctx context.Context, query string) (string, error) {
	m.callCount++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, query)
	}
	return m.ModelID, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return m.callCount
}
