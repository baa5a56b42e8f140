package participant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
	"github.com/hupe1980/groupflow/tool"
)

// ExecSpeakerOptions configures an ExecSpeaker.
type ExecSpeakerOptions struct {
	// MaxParallel bounds concurrent tool calls within one turn.
	MaxParallel int
	// Timeout limits each tool call.
	Timeout time.Duration
	// Logger for execution details.
	Logger logging.Logger
}

// ExecSpeaker is the executor participant: its reply runs the function
// calls carried by the previous turn and reports the results as text. Tool
// failures become message content the next speaker can react to, never Go
// errors, so a coder/executor loop can repair its own mistakes.
type ExecSpeaker struct {
	participant core.Participant
	registry    *tool.Registry
	executor    *tool.Executor
}

// NewExecSpeaker creates an executor speaker over the given registry.
func NewExecSpeaker(name string, registry *tool.Registry, optFns ...func(o *ExecSpeakerOptions)) *ExecSpeaker {
	opts := ExecSpeakerOptions{
		Timeout: 30 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ExecSpeaker{
		participant: core.NewParticipant(name, core.RoleExecutor),
		registry:    registry,
		executor:    tool.NewExecutor(tool.ExecutorConfig{MaxParallel: opts.MaxParallel, Timeout: opts.Timeout, Logger: opts.Logger}),
	}
}

// Participant implements Speaker.
func (s *ExecSpeaker) Participant() core.Participant { return s.participant }

// Reply implements Speaker. The previous turn's function calls are executed
// in order; the reply content summarizes each result or failure.
func (s *ExecSpeaker) Reply(ctx context.Context, transcript []core.Turn) (core.Message, error) {
	if len(transcript) == 0 {
		return core.Message{Content: "nothing to execute"}, nil
	}
	last := transcript[len(transcript)-1]
	if len(last.FunctionCalls) == 0 {
		return core.Message{Content: "nothing to execute: previous turn carried no function calls"}, nil
	}

	responses := s.executor.Execute(ctx, "", s.registry, last.FunctionCalls)

	var b strings.Builder
	failed := false
	for i, resp := range responses {
		if i > 0 {
			b.WriteString("\n")
		}
		if resp.Error != "" {
			failed = true
			fmt.Fprintf(&b, "%s failed: %s", resp.Name, resp.Error)
			continue
		}
		fmt.Fprintf(&b, "%s: %v", resp.Name, resp.Response)
	}

	msg := core.Message{
		Content:           b.String(),
		FunctionResponses: responses,
	}
	if failed {
		msg.Metadata = map[string]string{"exec_failed": "true"}
	}
	return msg, nil
}
