package core

import (
	"errors"
	"sync"
	"time"
)

// StopReason records why a conversation ended.
type StopReason string

const (
	// StopReasonPolicy means the speaker-selection policy returned terminate.
	StopReasonPolicy StopReason = "policy-terminate"
	// StopReasonRoundLimit means the configured round cap was reached.
	StopReasonRoundLimit StopReason = "round-limit-reached"
	// StopReasonTurnFailure means a speaker failed to produce a reply after
	// the bounded retries were exhausted.
	StopReasonTurnFailure StopReason = "turn-failure"
	// StopReasonCancelled means the surrounding context was cancelled
	// between turns.
	StopReasonCancelled StopReason = "cancelled"
)

// ErrConversationTerminated is returned when a turn is appended to a
// conversation that has already ended.
var ErrConversationTerminated = errors.New("conversation is terminated")

// Conversation bundles the transcript with the loop bookkeeping the chat
// manager mutates: round counting, the round cap and the termination flag.
//
// Contract:
//   - RoundCount counts reply turns; the seeding turn (sequence 0) is free.
//   - RoundCount never exceeds MaxRounds.
//   - Once Terminated is true no further turns are accepted.
type Conversation struct {
	ID         string      `json:"id"`
	Transcript *Transcript `json:"transcript"`
	RoundCount int         `json:"round_count"`
	MaxRounds  int         `json:"max_rounds"`
	Terminated bool        `json:"terminated"`
	StopReason StopReason  `json:"stop_reason,omitempty"`
	Created    time.Time   `json:"created"`
	Updated    time.Time   `json:"updated"`

	mu sync.RWMutex
}

// NewConversation creates a conversation with an empty transcript.
// maxRounds must be positive; it caps the number of reply turns.
func NewConversation(id string, maxRounds int) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:         id,
		Transcript: NewTranscript(),
		MaxRounds:  maxRounds,
		Created:    now,
		Updated:    now,
	}
}

// Seed appends the opening turn (sequence 0) without consuming a round.
// An empty content string is a valid seed.
func (c *Conversation) Seed(turn Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Terminated {
		return ErrConversationTerminated
	}
	if err := c.Transcript.Append(turn); err != nil {
		return err
	}
	c.Updated = time.Now().UTC()
	return nil
}

// AppendTurn appends a reply turn and consumes one round. It rejects turns
// once the conversation is terminated or the round cap is exhausted.
func (c *Conversation) AppendTurn(turn Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Terminated {
		return ErrConversationTerminated
	}
	if c.RoundCount >= c.MaxRounds {
		return ErrConversationTerminated
	}
	if err := c.Transcript.Append(turn); err != nil {
		return err
	}
	c.RoundCount++
	c.Updated = time.Now().UTC()
	return nil
}

// RoundsLeft returns how many reply turns may still be appended.
func (c *Conversation) RoundsLeft() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.MaxRounds - c.RoundCount
}

// Terminate marks the conversation as ended with the given reason.
// Subsequent calls keep the first reason.
func (c *Conversation) Terminate(reason StopReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Terminated {
		return
	}
	c.Terminated = true
	c.StopReason = reason
	c.Updated = time.Now().UTC()
}

// IsTerminated reports whether the conversation has ended.
func (c *Conversation) IsTerminated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Terminated
}

// Reason returns the recorded stop reason (empty while running).
func (c *Conversation) Reason() StopReason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StopReason
}

// Clone returns a deep copy of the conversation safe for independent use,
// e.g. when archiving snapshots in a store.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Conversation{
		ID:         c.ID,
		Transcript: c.Transcript.Clone(),
		RoundCount: c.RoundCount,
		MaxRounds:  c.MaxRounds,
		Terminated: c.Terminated,
		StopReason: c.StopReason,
		Created:    c.Created,
		Updated:    c.Updated,
	}
}
