package history

import (
	"fmt"
	"sync"

	"github.com/hupe1980/groupflow/model"
	"github.com/pkoukk/tiktoken-go"
)

// perMessageOverhead approximates the tokens the chat format spends per
// message on role/name framing.
const perMessageOverhead = 4

// TokenCounter counts tokens using the tiktoken encoding of a given model,
// falling back to cl100k_base for unknown model names. Encoding lookup is
// lazy and cached; the counter is safe for concurrent use.
type TokenCounter struct {
	model   string
	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenCounter creates a counter for the given model name.
func NewTokenCounter(modelName string) *TokenCounter {
	return &TokenCounter{model: modelName}
}

func (c *TokenCounter) encoding() (*tiktoken.Tiktoken, error) {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		c.enc = enc
		c.initErr = err
	})
	if c.initErr != nil {
		return nil, fmt.Errorf("tokenizer init: %w", c.initErr)
	}
	return c.enc, nil
}

// Count returns the token count of the text.
func (c *TokenCounter) Count(text string) (int, error) {
	enc, err := c.encoding()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountMessage returns the token cost of one chat message including framing
// overhead.
func (c *TokenCounter) CountMessage(msg model.ChatMessage) (int, error) {
	n, err := c.Count(msg.Content)
	if err != nil {
		return 0, err
	}
	return n + perMessageOverhead, nil
}

// TokenLimiter is a Condenser that drops the oldest droppable messages until
// the total token count fits the budget. The first message (the seeded task)
// and the last message (the turn being replied to) are always kept.
type TokenLimiter struct {
	counter *TokenCounter
	budget  int
}

// NewTokenLimiter constructs a limiter with the given token budget.
func NewTokenLimiter(counter *TokenCounter, budget int) *TokenLimiter {
	return &TokenLimiter{counter: counter, budget: budget}
}

// Condense implements Condenser.
func (l *TokenLimiter) Condense(msgs []model.ChatMessage) ([]model.ChatMessage, error) {
	if len(msgs) <= 2 {
		return msgs, nil
	}

	costs := make([]int, len(msgs))
	total := 0
	for i, msg := range msgs {
		n, err := l.counter.CountMessage(msg)
		if err != nil {
			return nil, err
		}
		costs[i] = n
		total += n
	}
	if total <= l.budget {
		return msgs, nil
	}

	// Drop middle messages oldest-first until within budget. Index 0 and the
	// final message are pinned.
	drop := make([]bool, len(msgs))
	for i := 1; i < len(msgs)-1 && total > l.budget; i++ {
		drop[i] = true
		total -= costs[i]
	}

	out := make([]model.ChatMessage, 0, len(msgs))
	for i, msg := range msgs {
		if !drop[i] {
			out = append(out, msg)
		}
	}
	return out, nil
}
