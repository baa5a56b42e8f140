// Package tool implements the function / tool calling subsystem that lets
// participants invoke structured capabilities (APIs, computations,
// side-effects) with schema validated arguments, consistent error handling
// and rich metadata for LLM guidance.
//
// Tools live in an explicit Registry built once at setup and passed into the
// participants that need it; there is no hidden global registry.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/groupflow/internal/util"
	"github.com/hupe1980/groupflow/logging"
)

// Tool defines the interface for extending participant capabilities with
// external functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with structured arguments. Arguments are parsed
	// from JSON and validated against the tool's schema before invocation.
	Call(callCtx *CallContext, args map[string]any) (any, error)
}

// CallContext carries per-invocation details into a tool: the ambient
// context, the conversation the call belongs to, the originating function
// call id and a logger.
type CallContext struct {
	ctx            context.Context
	conversationID string
	callID         string
	logger         logging.Logger
}

// NewCallContext constructs a CallContext. A nil logger is replaced with a
// no-op logger.
func NewCallContext(ctx context.Context, conversationID, callID string, logger logging.Logger) *CallContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &CallContext{ctx: ctx, conversationID: conversationID, callID: callID, logger: logger}
}

// Context returns the ambient context for cancellation/timeouts.
func (c *CallContext) Context() context.Context { return c.ctx }

// ConversationID returns the owning conversation id.
func (c *CallContext) ConversationID() string { return c.conversationID }

// FunctionCallID returns the id correlating model request & tool execution.
func (c *CallContext) FunctionCallID() string { return c.callID }

// Logger returns the logger for this invocation.
func (c *CallContext) Logger() logging.Logger { return c.logger }

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
