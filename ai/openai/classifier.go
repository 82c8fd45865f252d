// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelClassifier implements ai.ModelClassifier using OpenAI-compatible chat APIs.
// It asks a small routing model to categorize each query, then maps the
// category to a chat model identifier. Classification failures fall back
// to the default chat model rather than failing the request.
type ModelClassifier struct {
	client       llms.Model
	routes       map[string]string
	defaultModel string
	logger       *slog.Logger
}

// routing is the wrapper structure for the LLM's JSON response.
type routing struct {
	Category string `json:"category"`
}

// newModelClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newModelClassifier(config *ai.Config, routes map[string]string) (*ModelClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken("none"),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	if routes == nil {
		routes = map[string]string{}
	}

	return &ModelClassifier{
		client:       client,
		routes:       routes,
		defaultModel: config.ChatModel,
		logger:       slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewModelClassifier creates a classifier using the provided configuration.
// The routes map translates query categories into chat model identifiers;
// categories without an entry use config.ChatModel.
//
// Returns ai.ModelClassifier interface to enforce abstraction.
func NewModelClassifier(config *ai.Config, routes map[string]string) (ai.ModelClassifier, error) {
	return newModelClassifier(config, routes)
}

// Classify routes a user query to a chat model identifier.
func (c *ModelClassifier) Classify(ctx context.Context, query string) (string, error) {
	query = scrubString(query)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(routingSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result routing
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Warn("routing model unavailable, using default chat model", "err", err)
			return c.defaultModel, nil
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from routing model")
			return c.defaultModel, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing routing response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Warn("failed to parse routing response after retries, using default chat model", "err", lastErr)
		return c.defaultModel, nil
	}

	category := strings.ToLower(strings.TrimSpace(result.Category))
	if modelID, ok := c.routes[category]; ok && modelID != "" {
		c.logger.Debug("routed query", "category", category, "model", modelID)
		return modelID, nil
	}

	c.logger.Debug("no route for category, using default chat model", "category", category)
	return c.defaultModel, nil
}
