// Package participant provides the speaker implementations that produce
// turns in a group chat: model-backed speakers, an executor speaker that
// runs function calls emitted by a previous turn, and a scripted speaker for
// tests and deterministic workflows.
package participant

import (
	"context"

	"github.com/hupe1980/groupflow/core"
)

// Speaker is an addressable entity able to produce a message. Reply receives
// an immutable transcript snapshot and must observe ctx cancellation; it is
// never invoked concurrently for the same conversation.
type Speaker interface {
	// Participant returns the immutable identity of this speaker.
	Participant() core.Participant

	// Reply produces the speaker's next message conditioned on the full
	// prior transcript. Errors are treated as recoverable per-turn failures
	// by the chat manager.
	Reply(ctx context.Context, transcript []core.Turn) (core.Message, error)
}

// SpeakerFunc adapts a plain function into a Speaker with a fixed identity.
func SpeakerFunc(who core.Participant, fn func(ctx context.Context, transcript []core.Turn) (core.Message, error)) Speaker {
	return funcSpeaker{who: who, fn: fn}
}

type funcSpeaker struct {
	who core.Participant
	fn  func(ctx context.Context, transcript []core.Turn) (core.Message, error)
}

func (s funcSpeaker) Participant() core.Participant { return s.who }

func (s funcSpeaker) Reply(ctx context.Context, transcript []core.Turn) (core.Message, error) {
	return s.fn(ctx, transcript)
}
