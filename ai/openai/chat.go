package openai

import (
	"github.com/poiesic/recall/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// newChatModel creates an llms.Model bound to the configured chat host.
// The model identifier may differ from config.ChatModel when the
// classifier routes a query to another model.
func newChatModel(config *ai.Config, modelID string) (llms.Model, error) {
	if modelID == "" {
		modelID = config.ChatModel
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(modelID),
	)
}

// NewChatModel creates a conversational model using the provided
// configuration. Pass an empty modelID to use config.ChatModel.
func NewChatModel(config *ai.Config, modelID string) (llms.Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newChatModel(config, modelID)
}
