package config

import (
	"strings"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/policy"
	"golang.org/x/time/rate"
)

// CoreParticipants maps the declared participants to their core identities,
// preserving declaration order.
func (c *ChatConfig) CoreParticipants() []core.Participant {
	out := make([]core.Participant, 0, len(c.Participants))
	for _, p := range c.Participants {
		out = append(out, core.Participant{Name: p.Name, Role: core.Role(p.Role)})
	}
	return out
}

// BuildPolicy constructs the speaker-selection policy the definition names,
// wrapped with sentinel termination when a sentinel is configured.
func (c *ChatConfig) BuildPolicy() policy.Policy {
	participants := c.CoreParticipants()

	var selector policy.Policy
	switch c.Policy {
	case PolicyStateFlow:
		transitions := make([]policy.Transition, 0, len(c.Transitions))
		for _, tr := range c.Transitions {
			t := policy.Transition{From: tr.From, Next: tr.Next}
			if tr.When != "" {
				substr := tr.When
				t.When = func(last core.Turn) bool {
					return strings.Contains(last.Message.Content, substr)
				}
			}
			transitions = append(transitions, t)
		}
		initiator := core.Participant{Name: c.Initiator().Name, Role: core.RoleInitiator}
		selector = policy.NewStateFlow(initiator, participants, transitions)
	default:
		selector = policy.NewRoundRobin(participants...)
	}

	if c.Sentinel != "" {
		selector = policy.WithTermination(selector, policy.SentinelSuffix(c.Sentinel))
	}
	return selector
}

// BuildRateLimiter returns the configured limiter or nil when rate limiting
// is disabled.
func (c *ChatConfig) BuildRateLimiter() *rate.Limiter {
	if c.RateLimit == nil {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimit.PerSecond), c.RateLimit.Burst)
}
