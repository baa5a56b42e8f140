package tool

import (
	"context"
	"testing"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Schema & Validation Tests --------------------

type convertArgs struct {
	Amount   float64 `json:"amount" description:"Amount of money"`
	Currency string  `json:"currency" description:"Three-letter currency code"`
	Note     *string `json:"note" description:"Optional note"`
}

func TestCreateSchemaFromStruct(t *testing.T) {
	schema := util.CreateSchema(convertArgs{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "amount")
	assert.Contains(t, props, "currency")
	assert.Contains(t, props, "note")

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"amount", "currency"}, req)
}

// -------------------- FunctionTool Tests --------------------

func sumTool() *FunctionTool {
	return NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(cc *CallContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func TestFunctionTool_Call(t *testing.T) {
	cc := NewCallContext(context.Background(), "conv1", "fc1", nil)

	result, err := sumTool().Call(cc, map[string]any{"a": 1.5, "b": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	cc := NewCallContext(context.Background(), "conv1", "fc1", nil)

	_, err := sumTool().Call(cc, map[string]any{"a": 1.5})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("boom", "always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(cc *CallContext, args map[string]any) (any, error) {
			return nil, assert.AnError
		},
	)

	cc := NewCallContext(context.Background(), "conv1", "fc1", nil)
	_, err := failing.Call(cc, map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

// -------------------- Registry Tests --------------------

func TestRegistry(t *testing.T) {
	r := NewRegistry(sumTool())
	require.NoError(t, r.Register(NewFunctionTool("echo", "Echo input",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(cc *CallContext, args map[string]any) (any, error) { return args, nil },
	)))

	assert.Error(t, r.Register(sumTool()), "duplicate registration must fail")
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"calculate_sum", "echo"}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "calculate_sum", defs[0].Name)
	assert.NotEmpty(t, defs[0].Description)

	_, ok := r.Get("calculate_sum")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

// -------------------- Executor Tests --------------------

func TestExecutor_OrderAndErrors(t *testing.T) {
	registry := NewRegistry(
		sumTool(),
		NewFunctionTool("panics", "panics on call",
			map[string]any{"type": "object", "properties": map[string]any{}},
			func(cc *CallContext, args map[string]any) (any, error) { panic("kaboom") },
		),
	)

	exec := NewExecutor(ExecutorConfig{MaxParallel: 2})
	calls := []core.FunctionCall{
		{ID: "1", Name: "calculate_sum", Arguments: `{"a": 1, "b": 2}`},
		{ID: "2", Name: "panics", Arguments: `{}`},
		{ID: "3", Name: "missing_tool", Arguments: `{}`},
		{ID: "4", Name: "calculate_sum", Arguments: `not json`},
	}

	responses := exec.Execute(context.Background(), "conv1", registry, calls)
	require.Len(t, responses, 4)

	// Responses arrive in call order regardless of parallel execution.
	for i, resp := range responses {
		assert.Equal(t, calls[i].ID, resp.ID)
		assert.Equal(t, calls[i].Name, resp.Name)
	}

	assert.Empty(t, responses[0].Error)
	assert.Equal(t, 3.0, responses[0].Response)

	// Failures surface as text, never as Go errors or crashes.
	assert.Contains(t, responses[1].Error, "panicked")
	assert.Contains(t, responses[2].Error, "unknown tool")
	assert.Contains(t, responses[3].Error, "invalid arguments")
}

func TestExecutor_SingleCallFastPath(t *testing.T) {
	registry := NewRegistry(sumTool())
	exec := NewExecutor(ExecutorConfig{})

	responses := exec.Execute(context.Background(), "conv1", registry, []core.FunctionCall{
		{ID: "1", Name: "calculate_sum", Arguments: `{"a": 2, "b": 3}`},
	})
	require.Len(t, responses, 1)
	assert.Equal(t, 5.0, responses[0].Response)
}
