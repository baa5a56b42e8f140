package participant

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/history"
	"github.com/hupe1980/groupflow/model"
	"github.com/hupe1980/groupflow/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptOf(contents ...string) []core.Turn {
	admin := core.Participant{Name: "Admin", Role: core.RoleInitiator}
	turns := make([]core.Turn, len(contents))
	for i, c := range contents {
		turns[i] = core.NewTurn(admin, i, core.Message{Content: c})
	}
	return turns
}

func TestModelSpeakerReply(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddResponse("What is 2+2?", "It is 4.")

	s := NewModelSpeaker("Helper", mock)
	assert.Equal(t, "Helper", s.Participant().Name)
	assert.Equal(t, core.RoleAssistant, s.Participant().Role)

	msg, err := s.Reply(context.Background(), transcriptOf("What is 2+2?"))
	require.NoError(t, err)
	assert.Equal(t, "It is 4.", msg.Content)
	require.NotNil(t, msg.Usage)
	assert.Positive(t, msg.Usage.TotalTokens)
}

func TestModelSpeakerPropagatesModelError(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.FailFirst(1)

	s := NewModelSpeaker("Helper", mock)
	_, err := s.Reply(context.Background(), transcriptOf("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Helper")
}

func TestModelSpeakerAppliesCondenser(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddResponse("latest", "condensed reply")

	s := NewModelSpeaker("Helper", mock, func(o *ModelSpeakerOptions) {
		o.Condenser = history.KeepLast(1)
	})

	msg, err := s.Reply(context.Background(), transcriptOf("oldest", "middle", "latest"))
	require.NoError(t, err)
	// Matched the canned response keyed on the last surviving message.
	assert.Equal(t, "condensed reply", msg.Content)
}

func TestExecSpeakerRunsPreviousCalls(t *testing.T) {
	type addArgs struct {
		A int `json:"a" description:"first operand"`
		B int `json:"b" description:"second operand"`
	}
	add := tool.NewFunctionToolFromStruct("add", "Adds two integers.", addArgs{},
		func(callCtx *tool.CallContext, args map[string]any) (any, error) {
			return int(args["a"].(float64)) + int(args["b"].(float64)), nil
		})

	registry := tool.NewRegistry(add)
	s := NewExecSpeaker("Executor", registry)
	assert.Equal(t, core.RoleExecutor, s.Participant().Role)

	coder := core.Participant{Name: "Coder", Role: core.RoleAssistant}
	turn := core.NewTurn(coder, 1, core.Message{
		Content: "calling add",
		FunctionCalls: []core.FunctionCall{
			{ID: "call-1", Name: "add", Arguments: `{"a": 2, "b": 3}`},
		},
	})

	msg, err := s.Reply(context.Background(), []core.Turn{turn})
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "add: 5")
	require.Len(t, msg.FunctionResponses, 1)
	assert.Empty(t, msg.Metadata)
}

func TestExecSpeakerReportsFailureAsText(t *testing.T) {
	boom := tool.NewFunctionTool("boom", "Always fails.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(callCtx *tool.CallContext, args map[string]any) (any, error) {
			return nil, assertableError("disk on fire")
		})

	registry := tool.NewRegistry(boom)
	s := NewExecSpeaker("Executor", registry)

	coder := core.Participant{Name: "Coder", Role: core.RoleAssistant}
	turn := core.NewTurn(coder, 1, core.Message{
		FunctionCalls: []core.FunctionCall{{ID: "call-1", Name: "boom", Arguments: `{}`}},
	})

	msg, err := s.Reply(context.Background(), []core.Turn{turn})
	require.NoError(t, err, "tool failures must not surface as Go errors")
	assert.True(t, strings.Contains(msg.Content, "boom failed"), "content: %q", msg.Content)
	assert.Equal(t, "true", msg.Metadata["exec_failed"])
}

func TestExecSpeakerNothingToExecute(t *testing.T) {
	registry := tool.NewRegistry()
	s := NewExecSpeaker("Executor", registry)

	msg, err := s.Reply(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "nothing to execute")

	msg, err = s.Reply(context.Background(), transcriptOf("plain text turn"))
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "nothing to execute")
}

func TestScriptSpeakerExhaustion(t *testing.T) {
	s := NewTextScript("Admin", core.RoleInitiator, "one", "two")

	msg, err := s.Reply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "one", msg.Content)

	msg, err = s.Reply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "two", msg.Content)

	_, err = s.Reply(context.Background(), nil)
	assert.Error(t, err)
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
