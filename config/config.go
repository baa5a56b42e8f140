// Package config loads declarative chat definitions from YAML and resolves
// API credentials from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParticipantConfig declares one chat participant.
type ParticipantConfig struct {
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	Instructions string `yaml:"instructions"`
	Model        string `yaml:"model"`
}

// TransitionConfig declares one edge of a state flow policy.
type TransitionConfig struct {
	From string `yaml:"from"`
	Next string `yaml:"next"`
	When string `yaml:"when"`
}

// RateLimitConfig bounds reply attempts per second.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ChatConfig is the root of a chat definition file.
type ChatConfig struct {
	Name         string              `yaml:"name"`
	MaxRounds    int                 `yaml:"max_rounds"`
	Sentinel     string              `yaml:"sentinel"`
	Policy       string              `yaml:"policy"`
	Participants []ParticipantConfig `yaml:"participants"`
	Transitions  []TransitionConfig  `yaml:"transitions"`
	RateLimit    *RateLimitConfig    `yaml:"rate_limit"`
}

// Policy names accepted in ChatConfig.Policy.
const (
	PolicyRoundRobin = "round_robin"
	PolicyStateFlow  = "state_flow"
)

// Role names accepted in ParticipantConfig.Role.
var validRoles = map[string]struct{}{
	"initiator":  {},
	"assistant":  {},
	"executor":   {},
	"terminator": {},
}

// Load reads and validates a chat definition from path.
func Load(path string) (*ChatConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chat config: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals and validates a chat definition.
func Parse(data []byte) (*ChatConfig, error) {
	var cfg ChatConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal chat config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ChatConfig) applyDefaults() {
	if c.MaxRounds == 0 {
		c.MaxRounds = 20
	}
	if c.Policy == "" {
		c.Policy = PolicyRoundRobin
	}
}

// Validate checks structural invariants of the definition.
func (c *ChatConfig) Validate() error {
	if len(c.Participants) == 0 {
		return fmt.Errorf("chat config: at least one participant required")
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("chat config: max_rounds must not be negative")
	}
	if c.Policy != PolicyRoundRobin && c.Policy != PolicyStateFlow {
		return fmt.Errorf("chat config: unknown policy %q", c.Policy)
	}

	names := make(map[string]struct{}, len(c.Participants))
	initiators := 0
	for _, p := range c.Participants {
		if p.Name == "" {
			return fmt.Errorf("chat config: participant with empty name")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("chat config: duplicate participant %q", p.Name)
		}
		names[p.Name] = struct{}{}
		if _, ok := validRoles[p.Role]; !ok {
			return fmt.Errorf("chat config: participant %q has unknown role %q", p.Name, p.Role)
		}
		if p.Role == "initiator" {
			initiators++
		}
	}
	if initiators != 1 {
		return fmt.Errorf("chat config: exactly one initiator required, found %d", initiators)
	}

	for i, tr := range c.Transitions {
		if _, ok := names[tr.From]; !ok {
			return fmt.Errorf("chat config: transition %d references unknown participant %q", i, tr.From)
		}
		if tr.Next != "" {
			if _, ok := names[tr.Next]; !ok {
				return fmt.Errorf("chat config: transition %d targets unknown participant %q", i, tr.Next)
			}
		}
	}
	if c.Policy == PolicyStateFlow && len(c.Transitions) == 0 {
		return fmt.Errorf("chat config: state_flow policy requires transitions")
	}

	if c.RateLimit != nil {
		if c.RateLimit.PerSecond <= 0 {
			return fmt.Errorf("chat config: rate_limit.per_second must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("chat config: rate_limit.burst must be positive")
		}
	}
	return nil
}

// Initiator returns the declared initiator participant.
func (c *ChatConfig) Initiator() ParticipantConfig {
	for _, p := range c.Participants {
		if p.Role == "initiator" {
			return p
		}
	}
	return ParticipantConfig{}
}
