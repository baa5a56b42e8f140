package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfOrderTurn is returned by Transcript.Append when a turn's sequence
// number does not continue the transcript exactly.
var ErrOutOfOrderTurn = errors.New("turn sequence does not continue the transcript")

// Transcript is the authoritative append-only record of a conversation.
// It accepts only turns whose sequence number is exactly one greater than
// the last accepted turn (i.e. equal to the current length) and never
// mutates accepted turns. It is safe for concurrent access; readers always
// receive defensive copies.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript constructs an empty transcript.
func NewTranscript() *Transcript { return &Transcript{} }

// Append accepts the turn if its sequence equals the current length.
// Out-of-order or duplicate appends are rejected with ErrOutOfOrderTurn.
func (t *Transcript) Append(turn Turn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turn.Sequence != len(t.turns) {
		return fmt.Errorf("%w: got sequence %d, want %d", ErrOutOfOrderTurn, turn.Sequence, len(t.turns))
	}
	t.turns = append(t.turns, turn)
	return nil
}

// Turns returns a copy of the full turn slice so callers cannot mutate the
// transcript retroactively.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	turns := make([]Turn, len(t.turns))
	copy(turns, t.turns)
	return turns
}

// Len returns the number of accepted turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Clone returns an independent deep copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	t.mu.RLock()
	defer t.mu.RUnlock()
	clone := &Transcript{turns: make([]Turn, len(t.turns))}
	copy(clone.turns, t.turns)
	return clone
}
