// Package policy implements speaker selection for group chats: given the
// last speaker and the transcript so far, a Policy decides which participant
// speaks next or that the conversation should terminate.
//
// Policies must be deterministic for the same transcript prefix so that
// conversations are reproducible. When a policy cannot classify the last
// speaker or message it fails closed and terminates rather than guessing,
// avoiding unbounded conversations.
package policy

import "github.com/hupe1980/groupflow/core"

// Policy decides the next speaker of a conversation.
//
// NextSpeaker returns the chosen participant and true, or the zero
// participant and false to terminate the conversation. An empty transcript
// must yield the designated initiator.
type Policy interface {
	NextSpeaker(last core.Participant, transcript []core.Turn) (core.Participant, bool)
}

// Func adapts a plain function to the Policy interface.
type Func func(last core.Participant, transcript []core.Turn) (core.Participant, bool)

// NextSpeaker implements Policy.
func (f Func) NextSpeaker(last core.Participant, transcript []core.Turn) (core.Participant, bool) {
	return f(last, transcript)
}

// Terminate is the zero-participant terminate result, for readability in
// hand-written policies.
func Terminate() (core.Participant, bool) { return core.Participant{}, false }
