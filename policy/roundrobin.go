package policy

import "github.com/hupe1980/groupflow/core"

// RoundRobin cycles through the participant list in order. The first
// participant is the initiator. An unknown last speaker fails closed.
type RoundRobin struct {
	participants []core.Participant
}

// NewRoundRobin constructs a round robin policy over the given participants.
// The slice is copied; order defines the speaking order.
func NewRoundRobin(participants ...core.Participant) *RoundRobin {
	ps := make([]core.Participant, len(participants))
	copy(ps, participants)
	return &RoundRobin{participants: ps}
}

// NextSpeaker implements Policy.
func (r *RoundRobin) NextSpeaker(last core.Participant, transcript []core.Turn) (core.Participant, bool) {
	if len(r.participants) == 0 {
		return Terminate()
	}
	if len(transcript) == 0 {
		return r.participants[0], true
	}
	for i, p := range r.participants {
		if p == last {
			return r.participants[(i+1)%len(r.participants)], true
		}
	}
	// Last speaker is not part of the rotation: fail closed.
	return Terminate()
}
