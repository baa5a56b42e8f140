package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
	"golang.org/x/sync/errgroup"
)

// ExecutorConfig configures the batch executor.
type ExecutorConfig struct {
	MaxParallel int           // 0 or <1 => no explicit limit
	Timeout     time.Duration // per-call timeout; 0 disables
	Logger      logging.Logger
}

// Executor runs a batch of function calls against a registry, possibly in
// parallel, and returns exactly one FunctionResponse per call in the
// original call order. Failures (unknown tool, bad arguments, tool errors,
// panics) are recorded in the response Error field as text, never returned
// as Go errors, so the conversation can react to them.
type Executor struct {
	cfg ExecutorConfig
}

// NewExecutor constructs an executor with the given config.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	return &Executor{cfg: cfg}
}

// Execute runs all calls and collects their responses in call order.
func (e *Executor) Execute(ctx context.Context, conversationID string, registry *Registry, calls []core.FunctionCall) []core.FunctionResponse {
	n := len(calls)
	if n == 0 {
		return nil
	}

	responses := make([]core.FunctionResponse, n)

	// Fast path: single call, execute inline.
	if n == 1 {
		responses[0] = e.executeSingle(ctx, conversationID, registry, calls[0])
		return responses
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxParallel > 0 {
		g.SetLimit(e.cfg.MaxParallel)
	}
	for i, fc := range calls {
		i, fc := i, fc
		g.Go(func() error {
			responses[i] = e.executeSingle(gctx, conversationID, registry, fc)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the responses

	return responses
}

// executeSingle runs one call, shielding the caller from panics.
func (e *Executor) executeSingle(ctx context.Context, conversationID string, registry *Registry, fc core.FunctionCall) (resp core.FunctionResponse) {
	resp = core.FunctionResponse{ID: fc.ID, Name: fc.Name}

	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error("tool.execute.panic", "tool", fc.Name, "panic", fmt.Sprintf("%v", r))
			resp.Response = nil
			resp.Error = fmt.Sprintf("tool %s panicked: %v", fc.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		resp.Error = err.Error()
		return resp
	}

	t, ok := registry.Get(fc.Name)
	if !ok {
		resp.Error = fmt.Sprintf("unknown tool: %s", fc.Name)
		return resp
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			resp.Error = fmt.Sprintf("invalid arguments for %s: %v", fc.Name, err)
			return resp
		}
	}

	callCtx := NewCallContext(ctx, conversationID, fc.ID, e.cfg.Logger)
	if e.cfg.Timeout > 0 {
		tctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
		callCtx = NewCallContext(tctx, conversationID, fc.ID, e.cfg.Logger)
	}

	result, err := t.Call(callCtx, args)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Response = result
	return resp
}
