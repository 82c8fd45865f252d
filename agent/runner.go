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


package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/recall/core"
)

const (
	defaultMaxToolCalls = 5
	defaultTurnTimeout  = 30 * time.Second
)

// Runner drives one conversational turn of a tool-calling model. Each
// turn is bounded twice: at most MaxToolCalls tool invocations, and a
// wall-clock timeout. When the budget runs out the caller gets a
// degraded Response rather than an error or a hang.
type Runner struct {
	model        llms.Model
	tools        *Toolset
	maxToolCalls int
	turnTimeout  time.Duration
	logger       *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithMaxToolCalls sets the per-turn tool invocation budget.
// Default is 5.
func WithMaxToolCalls(n int) RunnerOption {
	return func(r *Runner) error {
		if n <= 0 {
			return ErrInvalidMaxToolCalls
		}
		r.maxToolCalls = n
		return nil
	}
}

// WithTurnTimeout bounds one turn's wall-clock time. Default is 30s.
func WithTurnTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		r.turnTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates an agent runner.
func NewRunner(model llms.Model, tools *Toolset, opts ...RunnerOption) (*Runner, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	if tools == nil {
		return nil, ErrToolsetRequired
	}

	r := &Runner{
		model:        model,
		tools:        tools,
		maxToolCalls: defaultMaxToolCalls,
		turnTimeout:  defaultTurnTimeout,
		logger:       slog.Default().With("component", "agent-runner"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Response is the outcome of one agent turn.
type Response struct {
	// Text is the assistant's answer. On a degraded turn it is a
	// best-effort summary of what retrieval found so far.
	Text string

	// Degraded is true when the turn hit its time budget before the
	// model produced a final answer.
	Degraded bool

	// ToolCalls is the number of tool invocations the turn used.
	ToolCalls int
}

// Run executes one turn: the model sees the system prompt, the chat
// history, a block of retrieved notes, and the user's query, and may
// call tools until it answers or a budget runs out.
func (r *Runner) Run(ctx context.Context, systemPrompt string, fctx *core.FollowUpContext, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if fctx == nil {
		fctx = &core.FollowUpContext{}
	}

	turnCtx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	messages := r.buildMessages(systemPrompt, fctx, query)
	toolCalls := 0

	// The loop is bounded even against a model that keeps requesting
	// tools: once the budget is spent, tool requests are answered with
	// a refusal and the model gets one more chance to answer in text.
	for iteration := 0; iteration <= r.maxToolCalls+1; iteration++ {
		resp, err := r.model.GenerateContent(turnCtx, messages, llms.WithTools(r.tools.Definitions()))
		if err != nil {
			if isDeadline(err) {
				r.logger.Warn("agent turn timed out", "toolCalls", toolCalls)
				return r.degradedResponse(fctx, toolCalls), nil
			}
			return nil, err
		}

		if len(resp.Choices) == 0 {
			return nil, ErrNoChoices
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			return &Response{Text: choice.Content, ToolCalls: toolCalls}, nil
		}

		// Echo the assistant's tool request back into the transcript
		assistantParts := make([]llms.ContentPart, 0, len(choice.ToolCalls))
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		for _, tc := range choice.ToolCalls {
			var result string
			if toolCalls >= r.maxToolCalls {
				r.logger.Warn("tool call budget exhausted", "tool", tc.FunctionCall.Name)
				result = "error: tool call limit reached, answer with the information you already have"
			} else {
				result = r.tools.Execute(turnCtx, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
				toolCalls++
			}

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    result,
					},
				},
			})

			if turnCtx.Err() != nil {
				r.logger.Warn("agent turn timed out during tool execution", "toolCalls", toolCalls)
				return r.degradedResponse(fctx, toolCalls), nil
			}
		}
	}

	// Model never produced a text answer within the iteration bound
	r.logger.Warn("agent loop exhausted without a final answer", "toolCalls", toolCalls)
	return r.degradedResponse(fctx, toolCalls), nil
}

// buildMessages assembles the turn's transcript.
func (r *Runner) buildMessages(systemPrompt string, fctx *core.FollowUpContext, query string) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(fctx.History)+3)

	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}

	for _, turn := range fctx.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == core.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}

	if len(fctx.RelevantNotes) > 0 {
		var block strings.Builder
		block.WriteString("Potentially relevant notes:\n")
		for _, note := range fctx.RelevantNotes {
			block.WriteString(fmt.Sprintf("- [%s]", note.ID))
			if note.Title != "" {
				block.WriteString(" " + note.Title + ":")
			}
			block.WriteString(" " + snippet(note.Content, 300) + "\n")
		}
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, block.String()))
	}

	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))
	return messages
}

// degradedResponse summarizes what retrieval already produced. The
// deadline error itself is absorbed here, never surfaced to callers.
func (r *Runner) degradedResponse(fctx *core.FollowUpContext, toolCalls int) *Response {
	var text strings.Builder
	text.WriteString("I couldn't finish answering in time.")

	if len(fctx.RelevantNotes) > 0 {
		text.WriteString(" These notes looked relevant:")
		for _, note := range fctx.RelevantNotes {
			title := note.Title
			if title == "" {
				title = snippet(note.Content, 60)
			}
			text.WriteString("\n- " + title)
		}
	}

	return &Response{
		Text:      text.String(),
		Degraded:  true,
		ToolCalls: toolCalls,
	}
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
