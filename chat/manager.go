// Package chat runs multi-participant conversations. A Manager owns the
// turn loop: it seeds the transcript, asks the policy for the next speaker,
// collects that speaker's reply, appends it as a turn, and repeats until
// the policy terminates, the round cap is hit, the context is cancelled or
// a speaker fails past its retry budget.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
	"github.com/hupe1980/groupflow/participant"
	"github.com/hupe1980/groupflow/policy"
	"github.com/hupe1980/groupflow/sink"
	"golang.org/x/time/rate"
)

// Options holds dependency + configuration overrides passed to NewManager().
type Options struct {
	// MaxRounds caps the number of reply turns. The seed turn is free.
	MaxRounds int
	// MaxRetries is the number of additional attempts after a failed reply.
	MaxRetries int
	// RetryBackoff is the initial delay between attempts; it doubles per retry.
	RetryBackoff time.Duration
	// RateLimiter, when set, gates every reply attempt.
	RateLimiter *rate.Limiter
	// Sinks receive each accepted turn, best-effort.
	Sinks []sink.Sink
	// ConversationID overrides the generated conversation ID.
	ConversationID string
	// Logging services.
	Logger logging.Logger
}

// Manager drives one conversation at a time through its turn loop.
// A Manager is reusable; each Run call builds a fresh conversation.
type Manager struct {
	selector policy.Policy
	speakers map[string]participant.Speaker

	maxRounds      int
	maxRetries     int
	retryBackoff   time.Duration
	rateLimiter    *rate.Limiter
	sinks          *sink.Multi
	conversationID string
	logger         logging.Logger
}

// NewManager constructs a Manager. Speaker names must be unique; a
// duplicate is a programming error and panics.
func NewManager(selector policy.Policy, speakers []participant.Speaker, optFns ...func(o *Options)) *Manager {
	opts := Options{
		MaxRounds:    20,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]participant.Speaker, len(speakers))
	for _, s := range speakers {
		name := s.Participant().Name
		if _, exists := byName[name]; exists {
			panic(fmt.Sprintf("chat: duplicate speaker name %q", name))
		}
		byName[name] = s
	}

	return &Manager{
		selector:       selector,
		speakers:       byName,
		maxRounds:      opts.MaxRounds,
		maxRetries:     opts.MaxRetries,
		retryBackoff:   opts.RetryBackoff,
		rateLimiter:    opts.RateLimiter,
		sinks:          sink.NewMulti(opts.Logger, opts.Sinks...),
		conversationID: opts.ConversationID,
		logger:         opts.Logger,
	}
}

// Run executes the conversation seeded with initial. The seed turn is
// attributed to the participant the policy selects on an empty transcript
// and does not consume a round; an empty initial content is allowed.
//
// Run always returns the conversation, including on error, so callers can
// inspect the transcript and stop reason. The returned error is non-nil
// only for cancellation and exhausted retries; policy termination and the
// round limit are normal outcomes.
func (m *Manager) Run(ctx context.Context, initial core.Message) (*core.Conversation, error) {
	id := m.conversationID
	if id == "" {
		id = core.NewID()
	}
	conv := core.NewConversation(id, m.maxRounds)
	logger := m.logger

	initiator, ok := m.selector.NextSpeaker(core.Participant{}, nil)
	if !ok {
		conv.Terminate(core.StopReasonPolicy)
		return conv, nil
	}

	seed := core.NewTurn(initiator, 0, initial)
	if err := conv.Seed(seed); err != nil {
		return conv, err
	}
	m.deliver(ctx, conv.ID, seed)

	last := initiator
	for {
		if err := ctx.Err(); err != nil {
			conv.Terminate(core.StopReasonCancelled)
			return conv, err
		}

		next, ok := m.selector.NextSpeaker(last, conv.Transcript.Turns())
		if !ok {
			conv.Terminate(core.StopReasonPolicy)
			return conv, nil
		}

		if conv.RoundsLeft() == 0 {
			conv.Terminate(core.StopReasonRoundLimit)
			return conv, nil
		}

		speaker, found := m.speakers[next.Name]
		if !found {
			logger.Warn("chat.speaker.unknown", "speaker", next.Name)
			conv.Terminate(core.StopReasonPolicy)
			return conv, nil
		}

		msg, err := m.reply(ctx, speaker, conv, logger)
		if err != nil {
			if ctx.Err() != nil {
				conv.Terminate(core.StopReasonCancelled)
				return conv, ctx.Err()
			}
			conv.Terminate(core.StopReasonTurnFailure)
			return conv, fmt.Errorf("speaker %q failed after %d attempts: %w", next.Name, m.maxRetries+1, err)
		}

		turn := core.NewTurn(next, conv.Transcript.Len(), msg)
		if err := conv.AppendTurn(turn); err != nil {
			return conv, err
		}
		logger.Info("chat.turn.accepted",
			"conversation_id", conv.ID,
			"sequence", turn.Sequence,
			"speaker", next.Name,
			"role", string(next.Role),
		)
		m.deliver(ctx, conv.ID, turn)

		last = next
	}
}

// reply invokes the speaker with retries. The backoff doubles per attempt
// and respects context cancellation.
func (m *Manager) reply(ctx context.Context, speaker participant.Speaker, conv *core.Conversation, logger logging.Logger) (core.Message, error) {
	var lastErr error
	backoff := m.retryBackoff

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return core.Message{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if m.rateLimiter != nil {
			if err := m.rateLimiter.Wait(ctx); err != nil {
				return core.Message{}, err
			}
		}

		msg, err := speaker.Reply(ctx, conv.Transcript.Turns())
		if err == nil {
			return msg, nil
		}

		lastErr = err
		logger.Warn("chat.reply.failed",
			"speaker", speaker.Participant().Name,
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}

	return core.Message{}, lastErr
}

// deliver fans an accepted turn out to the configured sinks.
func (m *Manager) deliver(ctx context.Context, conversationID string, turn core.Turn) {
	_ = m.sinks.OnTurn(ctx, conversationID, turn)
}
