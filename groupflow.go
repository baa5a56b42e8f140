// Package groupflow provides a high-level façade over the chat manager and
// service abstractions (conversation store, sinks & logging) enabling rapid
// construction of multi-participant chat systems. Most applications interact
// with this package by:
//  1. Creating a GroupFlow via New() (optionally overriding default in-memory services)
//  2. Registering speakers (model-backed, executor, scripted, custom)
//  3. Starting conversations with Run() and retrieving them later by id
//
// The façade delegates the turn loop to chat.Manager while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable sink and a
// structured logger.
package groupflow

import (
	"context"
	"time"

	"github.com/hupe1980/groupflow/chat"
	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
	"github.com/hupe1980/groupflow/participant"
	"github.com/hupe1980/groupflow/policy"
	"github.com/hupe1980/groupflow/sink"
	"github.com/hupe1980/groupflow/store"
	"golang.org/x/time/rate"
)

// Options configures the GroupFlow instance.
type Options struct {
	// MaxRounds caps reply turns per conversation. The seed turn is free.
	MaxRounds int

	// MaxRetries is the per-turn retry budget for failing speakers.
	MaxRetries int

	// RetryBackoff is the initial delay between retry attempts.
	RetryBackoff time.Duration

	// RateLimiter gates reply attempts across the conversation when set.
	RateLimiter *rate.Limiter

	// Sinks receive every accepted turn (chat logs, broadcasters, metrics).
	Sinks []sink.Sink

	// Store archives finished conversations (defaults to in-memory).
	Store store.ConversationStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GroupFlow is the high-level façade aggregating the chat manager and its
// supporting services.
type GroupFlow struct {
	opts     Options
	speakers []participant.Speaker
	store    store.ConversationStore
}

// New creates a new GroupFlow instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(speakers []participant.Speaker, optFns ...func(o *Options)) *GroupFlow {
	opts := Options{
		MaxRounds:    20,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
		Store:        store.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &GroupFlow{opts: opts, speakers: speakers, store: opts.Store}
}

// Run executes one conversation under the given speaker-selection policy,
// archives the result and returns it. The conversation is archived even
// when Run returns an error so the transcript stays inspectable.
func (g *GroupFlow) Run(ctx context.Context, selector policy.Policy, initial core.Message) (*core.Conversation, error) {
	mgr := chat.NewManager(selector, g.speakers, func(o *chat.Options) {
		o.MaxRounds = g.opts.MaxRounds
		o.MaxRetries = g.opts.MaxRetries
		o.RetryBackoff = g.opts.RetryBackoff
		o.RateLimiter = g.opts.RateLimiter
		o.Sinks = g.opts.Sinks
		o.Logger = g.opts.Logger
	})

	conv, runErr := mgr.Run(ctx, initial)
	if conv != nil && conv.ID != "" {
		if err := g.store.Save(conv); err != nil {
			g.opts.Logger.Warn("groupflow.archive.failed", "conversation_id", conv.ID, "error", err.Error())
		}
	}
	return conv, runErr
}

// Conversation retrieves an archived conversation snapshot by id.
func (g *GroupFlow) Conversation(conversationID string) (*core.Conversation, error) {
	return g.store.Get(conversationID)
}

// Conversations lists archived conversation ids.
func (g *GroupFlow) Conversations() ([]string, error) {
	return g.store.List()
}
