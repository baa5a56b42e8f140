package participant

import (
	"context"
	"fmt"

	"github.com/hupe1980/groupflow/core"
)

// ScriptSpeaker replies with a fixed sequence of canned messages. It is the
// deterministic building block for tests and for initiator participants that
// never speak again after seeding.
type ScriptSpeaker struct {
	participant core.Participant
	replies     []core.Message
	next        int
}

// NewScriptSpeaker creates a scripted speaker that replies with the given
// messages in order.
func NewScriptSpeaker(name string, role core.Role, replies ...core.Message) *ScriptSpeaker {
	return &ScriptSpeaker{
		participant: core.NewParticipant(name, role),
		replies:     replies,
	}
}

// NewTextScript is a convenience for text-only scripted replies.
func NewTextScript(name string, role core.Role, contents ...string) *ScriptSpeaker {
	msgs := make([]core.Message, len(contents))
	for i, c := range contents {
		msgs[i] = core.Message{Content: c}
	}
	return NewScriptSpeaker(name, role, msgs...)
}

// Participant implements Speaker.
func (s *ScriptSpeaker) Participant() core.Participant { return s.participant }

// Reply implements Speaker. Running past the scripted replies is an error,
// surfacing turn-loop bugs instead of looping silently.
func (s *ScriptSpeaker) Reply(ctx context.Context, transcript []core.Turn) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}
	if s.next >= len(s.replies) {
		return core.Message{}, fmt.Errorf("script for %s exhausted after %d replies", s.participant.Name, len(s.replies))
	}
	msg := s.replies[s.next]
	s.next++
	return msg, nil
}
