// Package sink delivers accepted turns to write-only consumers: chat logs,
// metrics collectors, streaming broadcasters. Sinks are best-effort by
// contract — a failing sink is logged and skipped, it never aborts the
// conversation that feeds it.
package sink

import (
	"context"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
)

// Sink receives each accepted turn of a conversation. Implementations must
// be safe for sequential calls from a single goroutine and should return
// quickly; slow delivery belongs behind a buffer owned by the sink.
type Sink interface {
	OnTurn(ctx context.Context, conversationID string, turn core.Turn) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, conversationID string, turn core.Turn) error

// OnTurn implements Sink.
func (f Func) OnTurn(ctx context.Context, conversationID string, turn core.Turn) error {
	return f(ctx, conversationID, turn)
}

// NoOp discards all turns.
type NoOp struct{}

// OnTurn implements Sink.
func (NoOp) OnTurn(context.Context, string, core.Turn) error { return nil }

// Multi fans out to several sinks, isolating their failures from each other.
type Multi struct {
	sinks  []Sink
	logger logging.Logger
}

// NewMulti constructs a fan-out sink. A nil logger disables failure logging.
func NewMulti(logger logging.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Multi{sinks: sinks, logger: logger}
}

// OnTurn implements Sink. Every sink is attempted; failures are logged and
// swallowed.
func (m *Multi) OnTurn(ctx context.Context, conversationID string, turn core.Turn) error {
	for _, s := range m.sinks {
		if err := s.OnTurn(ctx, conversationID, turn); err != nil {
			m.logger.Warn("sink.deliver.failed", "conversation_id", conversationID, "sequence", turn.Sequence, "error", err.Error())
		}
	}
	return nil
}
