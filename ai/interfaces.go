package ai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelClassifier picks the chat model best suited to answer a query.
// Implementations must be thread-safe for concurrent use.
type ModelClassifier interface {
	// Classify inspects a user query and returns the identifier of the
	// chat model that should handle it. Implementations fall back to a
	// default model rather than failing the request when classification
	// is inconclusive.
	Classify(ctx context.Context, query string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the Embedder,
// chat model, and ModelClassifier, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the conversational model used by the retrieval
	// agent. The returned model is safe for concurrent use.
	ChatModel() llms.Model

	// Classifier returns the model selection service.
	// The returned ModelClassifier is safe for concurrent use.
	Classifier() ModelClassifier

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
