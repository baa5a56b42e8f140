package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/hupe1980/groupflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialConn(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, b.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcasterDeliversTurnEvents(t *testing.T) {
	b := NewBroadcaster()
	t.Cleanup(func() { _ = b.Close() })

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	conn := dialConn(t, srv)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	waitForClients(t, b, 1)

	turn := core.NewTurn(
		core.Participant{Name: "Coder", Role: core.RoleAssistant},
		3,
		core.Message{Content: "print('hi')"},
	)
	require.NoError(t, b.OnTurn(context.Background(), "conv-1", turn))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var event TurnEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, 3, event.Turn.Sequence)
	assert.Equal(t, "Coder", event.Turn.Speaker.Name)
	assert.Equal(t, "print('hi')", event.Turn.Message.Content)
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	t.Cleanup(func() { _ = b.Close() })

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	first := dialConn(t, srv)
	t.Cleanup(func() { _ = first.Close(websocket.StatusNormalClosure, "done") })
	second := dialConn(t, srv)
	t.Cleanup(func() { _ = second.Close(websocket.StatusNormalClosure, "done") })
	waitForClients(t, b, 2)

	turn := core.NewTurn(core.Participant{Name: "Admin", Role: core.RoleInitiator}, 0, core.Message{Content: "go"})
	require.NoError(t, b.OnTurn(context.Background(), "conv-2", turn))

	for _, conn := range []*websocket.Conn{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, data, err := conn.Read(ctx)
		cancel()
		require.NoError(t, err)

		var event TurnEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, "conv-2", event.ConversationID)
	}
}

func TestBroadcasterDropsClosedClient(t *testing.T) {
	b := NewBroadcaster(func(o *Options) {
		o.WriteTimeout = 500 * time.Millisecond
	})
	t.Cleanup(func() { _ = b.Close() })

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	conn := dialConn(t, srv)
	waitForClients(t, b, 1)
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "leaving"))

	turn := core.NewTurn(core.Participant{Name: "Admin", Role: core.RoleInitiator}, 0, core.Message{Content: "go"})

	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() > 0 {
		require.NoError(t, b.OnTurn(context.Background(), "conv-3", turn))
		if time.Now().After(deadline) {
			t.Fatal("closed client was never dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
