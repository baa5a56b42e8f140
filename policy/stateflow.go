package policy

import "github.com/hupe1980/groupflow/core"

// Transition is one edge of a StateFlow policy: when the last speaker is
// From and the optional guard matches the last turn, Next speaks. An empty
// Next terminates the conversation.
type Transition struct {
	From string
	Next string
	// When guards the edge on the last turn. A nil guard always matches.
	When func(last core.Turn) bool
}

// StateFlow selects speakers from an explicit transition table, turning the
// "state_transition callback" pattern of dynamic group chats into data. For
// a given last speaker the first transition whose guard matches wins, so
// edge order is significant and selection is deterministic.
//
// Any situation the table does not cover fails closed: an unknown last
// speaker, no matching edge, or an edge pointing at an unregistered
// participant all terminate the conversation.
type StateFlow struct {
	initiator   core.Participant
	byName      map[string]core.Participant
	transitions []Transition
}

// NewStateFlow constructs a state flow policy. The initiator speaks on an
// empty transcript; participants are the addressable set transitions may
// point at.
func NewStateFlow(initiator core.Participant, participants []core.Participant, transitions []Transition) *StateFlow {
	byName := make(map[string]core.Participant, len(participants)+1)
	byName[initiator.Name] = initiator
	for _, p := range participants {
		byName[p.Name] = p
	}
	ts := make([]Transition, len(transitions))
	copy(ts, transitions)
	return &StateFlow{initiator: initiator, byName: byName, transitions: ts}
}

// NextSpeaker implements Policy.
func (s *StateFlow) NextSpeaker(last core.Participant, transcript []core.Turn) (core.Participant, bool) {
	if len(transcript) == 0 {
		return s.initiator, true
	}
	if _, known := s.byName[last.Name]; !known {
		return Terminate()
	}
	lastTurn := transcript[len(transcript)-1]
	for _, tr := range s.transitions {
		if tr.From != last.Name {
			continue
		}
		if tr.When != nil && !tr.When(lastTurn) {
			continue
		}
		if tr.Next == "" {
			return Terminate()
		}
		next, ok := s.byName[tr.Next]
		if !ok {
			return Terminate()
		}
		return next, true
	}
	return Terminate()
}
