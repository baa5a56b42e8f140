package core

import (
	"time"

	"github.com/google/uuid"
)

// FunctionCall describes a tool/function invocation request carried by a turn.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Optional stable id (assigned by the provider)
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (JSON)
}

// FunctionResponse describes the outcome of a function call. Failures are
// recorded in Error as text so the conversation can react to them; they are
// never surfaced as Go errors to the turn loop.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string `json:"name"`               // Function name
	Response any    `json:"response,omitempty"` // Successful result (any JSON-serializable shape)
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// Usage captures token accounting for a model-produced turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message is the payload a speaker produces for one turn: text content plus
// any structured function calls or responses riding alongside it.
type Message struct {
	Content           string             `json:"content"`
	FunctionCalls     []FunctionCall     `json:"function_calls,omitempty"`
	FunctionResponses []FunctionResponse `json:"function_responses,omitempty"`
	Usage             *Usage             `json:"usage,omitempty"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
}

// Turn is one message production event attributed to a participant. After
// acceptance by a transcript it must be treated as immutable.
type Turn struct {
	ID        string      `json:"id"`
	Speaker   Participant `json:"speaker"`
	Sequence  int         `json:"sequence"`
	Timestamp time.Time   `json:"timestamp"`
	Message
}

// NewTurn creates a turn for the given speaker and payload. The sequence is
// assigned by the caller (the chat manager) and validated on append.
func NewTurn(speaker Participant, seq int, msg Message) Turn {
	return Turn{
		ID:        NewID(),
		Speaker:   speaker,
		Sequence:  seq,
		Timestamp: time.Now().UTC(),
		Message:   msg,
	}
}

// NewID generates a unique identifier for turns and conversations.
func NewID() string { return uuid.NewString() }
