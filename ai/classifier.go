package ai

import "context"

// StaticClassifier is a ModelClassifier that always returns the same
// model identifier. Useful when only one chat model is deployed.
type StaticClassifier struct {
	modelID string
}

var _ ModelClassifier = (*StaticClassifier)(nil)

// NewStaticClassifier creates a classifier pinned to one model.
func NewStaticClassifier(modelID string) *StaticClassifier {
	return &StaticClassifier{modelID: modelID}
}

// Classify returns the configured model identifier for every query.
func (c *StaticClassifier) Classify(ctx context.Context, query string) (string, error) {
	return c.modelID, nil
}
