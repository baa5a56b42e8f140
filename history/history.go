// Package history bounds the conversation context handed to models. Long
// group chats outgrow model context windows; a Condenser shrinks the message
// list before each generation while preserving the seed message and the most
// recent exchange.
package history

import (
	"github.com/hupe1980/groupflow/model"
)

// Condenser reduces a message list to fit a budget. Implementations must be
// deterministic and must never reorder the messages they keep.
type Condenser interface {
	Condense(msgs []model.ChatMessage) ([]model.ChatMessage, error)
}

// CondenserFunc adapts a function to the Condenser interface.
type CondenserFunc func(msgs []model.ChatMessage) ([]model.ChatMessage, error)

// Condense implements Condenser.
func (f CondenserFunc) Condense(msgs []model.ChatMessage) ([]model.ChatMessage, error) {
	return f(msgs)
}

// KeepLast retains only the newest n messages (plus the first message, which
// anchors the task). A simple alternative to token-based limiting.
func KeepLast(n int) CondenserFunc {
	return func(msgs []model.ChatMessage) ([]model.ChatMessage, error) {
		if len(msgs) <= n+1 {
			return msgs, nil
		}
		out := make([]model.ChatMessage, 0, n+1)
		out = append(out, msgs[0])
		out = append(out, msgs[len(msgs)-n:]...)
		return out, nil
	}
}
