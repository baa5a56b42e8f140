// Package model defines the narrow contract GroupFlow speakers use to talk
// to language-model completion services, plus a deterministic mock for tests.
// Provider adapters live in subpackages (openai, anthropic).
package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/groupflow/core"
)

// ChatMessage is one provider-agnostic conversation message. Role follows
// the chat-completion convention (system, user, assistant, tool); Name
// carries the speaking participant for multi-agent attribution.
type ChatMessage struct {
	Role              string                  `json:"role"`
	Name              string                  `json:"name,omitempty"`
	Content           string                  `json:"content"`
	FunctionCalls     []core.FunctionCall     `json:"function_calls,omitempty"`
	FunctionResponses []core.FunctionResponse `json:"function_responses,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by speakers.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []ChatMessage    `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *core.Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by speakers to drive generation.
// Generate may fail with rate-limit, timeout or malformed-response errors;
// callers treat those as per-turn recoverable failures.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	calls     int
	failFirst int
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailFirst makes the next n Generate calls fail, to exercise retry paths.
func (m *MockModel) FailFirst(n int) { m.failFirst = n }

// Calls returns how many times Generate has been invoked.
func (m *MockModel) Calls() int { return m.calls }

// Generate implements Model; emits optional streaming char chunks then the
// final response, keyed on the last message content.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.calls++
	failing := m.failFirst > 0
	if failing {
		m.failFirst--
	}

	go func() {
		defer close(respCh)
		defer close(errCh)
		if failing {
			errCh <- fmt.Errorf("mock model: simulated upstream failure")
			return
		}
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		inputText := req.Messages[len(req.Messages)-1].Content
		full := m.responses[inputText]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: ChatMessage{Role: "assistant", Content: string(r)},
				}:
				}
			}
		}
		respCh <- Response{
			Partial:      false,
			Message:      ChatMessage{Role: "assistant", Content: full},
			FinishReason: "stop",
			Usage:        &core.Usage{PromptTokens: len(inputText), CompletionTokens: len(full), TotalTokens: len(inputText) + len(full)},
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
