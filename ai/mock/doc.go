// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, llms.Model,
// ai.ModelClassifier, and ai.AIProvider for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embedding, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Scripted chat model responses
//	model := mock.NewMockChatModel(
//	    mock.ToolCallResponse(searchCall),
//	    mock.TextResponse("You noted the rent is due on the 1st."),
//	)
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockChatModel: Returns scripted responses in order
//   - MockClassifier: Returns a fixed model identifier
//   - MockProvider: Aggregates the three mocks above
package mock
