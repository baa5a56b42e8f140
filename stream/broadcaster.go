// Package stream pushes accepted turns to WebSocket subscribers. The
// Broadcaster plugs into the chat manager as a sink; each turn is delivered
// as a JSON event to every connected client.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/hupe1980/groupflow/core"
	"github.com/hupe1980/groupflow/logging"
)

// TurnEvent is the wire envelope pushed to subscribers.
type TurnEvent struct {
	ConversationID string    `json:"conversation_id"`
	Turn           core.Turn `json:"turn"`
}

// Options holds configuration overrides passed to NewBroadcaster().
type Options struct {
	// WriteTimeout bounds a single delivery to one client. A client that
	// cannot keep up within this window is dropped.
	WriteTimeout time.Duration
	// Logging services.
	Logger logging.Logger
}

// Broadcaster fans turn events out to WebSocket clients. It implements the
// sink interface used by the chat manager and serves as an http.Handler
// that upgrades incoming requests to subscriptions.
type Broadcaster struct {
	writeTimeout time.Duration
	logger       logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster constructs a Broadcaster with optional overrides.
func NewBroadcaster(optFns ...func(o *Options)) *Broadcaster {
	opts := Options{
		WriteTimeout: 5 * time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Broadcaster{
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
		clients:      make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket subscription. The
// connection stays open until the client disconnects or the server closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.logger.Warn("stream.accept.failed", "error", err.Error())
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	// Drain reads so control frames are processed; a read error means the
	// client went away.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	b.remove(conn, websocket.StatusNormalClosure, "bye")
}

// OnTurn delivers the turn to every subscriber. Clients that fail or miss
// the write deadline are dropped; delivery to the rest continues.
func (b *Broadcaster) OnTurn(ctx context.Context, conversationID string, turn core.Turn) error {
	data, err := json.Marshal(TurnEvent{ConversationID: conversationID, Turn: turn})
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
		err := c.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			b.logger.Warn("stream.client.dropped", "error", err.Error())
			b.remove(c, websocket.StatusPolicyViolation, "too slow")
		}
	}
	return nil
}

// ClientCount reports the number of connected subscribers.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects all subscribers.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.clients = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusNormalClosure, "shutting down")
	}
	return nil
}

func (b *Broadcaster) remove(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	b.mu.Lock()
	_, present := b.clients[conn]
	delete(b.clients, conn)
	b.mu.Unlock()

	if present {
		_ = conn.Close(code, reason)
	}
}
