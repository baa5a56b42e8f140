package policy

import (
	"strings"

	"github.com/hupe1980/groupflow/core"
)

// DefaultSentinel is the conventional termination marker.
const DefaultSentinel = "TERMINATE"

// TerminationCondition reports whether a turn signals the end of the
// conversation.
type TerminationCondition interface {
	ShouldTerminate(last core.Turn) bool
}

// TerminationFunc adapts a function to TerminationCondition.
type TerminationFunc func(last core.Turn) bool

// ShouldTerminate implements TerminationCondition.
func (f TerminationFunc) ShouldTerminate(last core.Turn) bool { return f(last) }

// SentinelSuffix terminates when the trimmed message content ends with the
// marker. This matches the loose convention where a model appends the marker
// to its final answer; content merely mentioning the marker mid-sentence
// does not trip it.
func SentinelSuffix(marker string) TerminationFunc {
	return func(last core.Turn) bool {
		return strings.HasSuffix(strings.TrimSpace(last.Content), marker)
	}
}

// SentinelExact terminates only when the trimmed message content equals the
// marker. Stricter than SentinelSuffix; immune to false positives from
// content that happens to end with the marker.
func SentinelExact(marker string) TerminationFunc {
	return func(last core.Turn) bool {
		return strings.TrimSpace(last.Content) == marker
	}
}

// MetadataSignal terminates when the turn carries the given metadata key,
// providing a structured alternative to content sentinels.
func MetadataSignal(key string) TerminationFunc {
	return func(last core.Turn) bool {
		_, ok := last.Metadata[key]
		return ok
	}
}

// WithTermination decorates a policy so that a matching termination
// condition on the last turn ends the conversation regardless of what the
// wrapped policy would decide next.
func WithTermination(p Policy, cond TerminationCondition) Policy {
	return Func(func(last core.Participant, transcript []core.Turn) (core.Participant, bool) {
		if len(transcript) > 0 && cond.ShouldTerminate(transcript[len(transcript)-1]) {
			return Terminate()
		}
		return p.NextSpeaker(last, transcript)
	})
}
