package participant

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/history"
	"github.com/hupe1980/groupflow/logging"
	"github.com/hupe1980/groupflow/model"
	"github.com/hupe1980/groupflow/tool"
)

// ModelSpeakerOptions configures a ModelSpeaker instance.
//
// Use functional options with NewModelSpeaker to override defaults.
type ModelSpeakerOptions struct {
	// Instructions is the system prompt for the speaker.
	Instructions string
	// Role tags the participant; defaults to RoleAssistant.
	Role core.Role
	// Registry enables inline function calling. When nil the speaker passes
	// function calls through on its message for an executor participant.
	Registry *tool.Registry
	// Tools declares function signatures to the model without executing
	// them inline. Ignored when Registry is set.
	Tools []model.ToolDefinition
	// MaxToolRounds bounds inline call/execute cycles within one reply.
	MaxToolRounds int
	// ToolTimeout limits each inline tool call.
	ToolTimeout time.Duration
	// Condenser bounds the context handed to the model.
	Condenser history.Condenser
	// Logger for speaker internals.
	Logger logging.Logger
}

// ModelSpeaker is a participant whose replies come from a language model.
//
// With a tool registry configured the speaker resolves function calls
// inline: it executes the calls, feeds the results back to the model and
// repeats up to MaxToolRounds before returning the final text. Without a
// registry, function calls the model emits ride on the returned message so
// a separate executor participant can run them on the next turn.
type ModelSpeaker struct {
	participant   core.Participant
	llm           model.Model
	instructions  string
	registry      *tool.Registry
	tools         []model.ToolDefinition
	executor      *tool.Executor
	maxToolRounds int
	condenser     history.Condenser
	logger        logging.Logger
}

// NewModelSpeaker creates a model-backed speaker with sensible defaults:
// assistant role, three inline tool rounds, 15s tool timeout, no condenser.
func NewModelSpeaker(name string, llm model.Model, optFns ...func(o *ModelSpeakerOptions)) *ModelSpeaker {
	opts := ModelSpeakerOptions{
		Instructions:  fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		Role:          core.RoleAssistant,
		MaxToolRounds: 3,
		ToolTimeout:   15 * time.Second,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &ModelSpeaker{
		participant:   core.NewParticipant(name, opts.Role),
		llm:           llm,
		instructions:  opts.Instructions,
		registry:      opts.Registry,
		tools:         opts.Tools,
		maxToolRounds: opts.MaxToolRounds,
		condenser:     opts.Condenser,
		logger:        opts.Logger,
	}
	if s.registry != nil {
		s.executor = tool.NewExecutor(tool.ExecutorConfig{Timeout: opts.ToolTimeout, Logger: opts.Logger})
	}
	return s
}

// Participant implements Speaker.
func (s *ModelSpeaker) Participant() core.Participant { return s.participant }

// Reply implements Speaker.
func (s *ModelSpeaker) Reply(ctx context.Context, transcript []core.Turn) (core.Message, error) {
	messages, err := s.buildMessages(transcript)
	if err != nil {
		return core.Message{}, err
	}

	req := model.Request{
		Instructions: s.instructions,
		Messages:     messages,
	}
	switch {
	case s.registry != nil:
		req.Tools = s.registry.Definitions()
	case len(s.tools) > 0:
		req.Tools = s.tools
	}

	var usage core.Usage
	rounds := s.maxToolRounds
	if rounds < 1 {
		rounds = 1
	}

	for round := 0; ; round++ {
		resp, err := s.generate(ctx, req)
		if err != nil {
			return core.Message{}, err
		}
		if resp.Usage != nil {
			usage.PromptTokens += resp.Usage.PromptTokens
			usage.CompletionTokens += resp.Usage.CompletionTokens
			usage.TotalTokens += resp.Usage.TotalTokens
		}

		calls := resp.Message.FunctionCalls
		if len(calls) == 0 || s.registry == nil || round >= rounds-1 {
			msg := core.Message{
				Content:       resp.Message.Content,
				FunctionCalls: calls,
			}
			if usage != (core.Usage{}) {
				u := usage
				msg.Usage = &u
			}
			return msg, nil
		}

		// Inline tool round: execute, feed results back, generate again.
		s.logger.Debug("speaker.tool_round", "speaker", s.participant.Name, "round", round, "calls", len(calls))
		responses := s.executor.Execute(ctx, "", s.registry, calls)
		req.Messages = append(req.Messages,
			model.ChatMessage{Role: "assistant", Content: resp.Message.Content, FunctionCalls: calls},
			model.ChatMessage{Role: "tool", FunctionResponses: responses},
		)
	}
}

// buildMessages converts the transcript into provider-agnostic chat
// messages from this speaker's point of view: own turns are assistant
// messages, everything else arrives as user input attributed by name.
func (s *ModelSpeaker) buildMessages(transcript []core.Turn) ([]model.ChatMessage, error) {
	messages := make([]model.ChatMessage, 0, len(transcript))
	for _, turn := range transcript {
		role := "user"
		if turn.Speaker == s.participant {
			role = "assistant"
		}
		messages = append(messages, model.ChatMessage{
			Role:              role,
			Name:              turn.Speaker.Name,
			Content:           turn.Content,
			FunctionResponses: turn.FunctionResponses,
		})
	}
	if s.condenser == nil {
		return messages, nil
	}
	condensed, err := s.condenser.Condense(messages)
	if err != nil {
		return nil, fmt.Errorf("condense history: %w", err)
	}
	return condensed, nil
}

// generate drains the model channels and returns the final response.
func (s *ModelSpeaker) generate(ctx context.Context, req model.Request) (*model.Response, error) {
	start := time.Now()
	respCh, errCh := s.llm.Generate(ctx, req)

	var final *model.Response
	for resp := range respCh {
		if !resp.Partial {
			r := resp
			final = &r
		}
	}
	if err := <-errCh; err != nil {
		s.logger.Warn("speaker.generate.failed", "speaker", s.participant.Name, "error", err.Error())
		return nil, fmt.Errorf("model generation for %s: %w", s.participant.Name, err)
	}
	if final == nil {
		return nil, fmt.Errorf("model generation for %s: no final response", s.participant.Name)
	}
	s.logger.Debug("speaker.generate.done", "speaker", s.participant.Name, "duration_ms", time.Since(start).Milliseconds())
	return final, nil
}
