// Package store archives finished and in-flight conversations so callers
// can retrieve transcripts after a chat run completes.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/groupflow/core"
)

// ErrNotFound is returned when a conversation id is unknown to the store.
var ErrNotFound = fmt.Errorf("store: conversation not found")

// ConversationStore persists conversation snapshots keyed by id.
type ConversationStore interface {
	Save(conv *core.Conversation) error
	Get(conversationID string) (*core.Conversation, error)
	List() ([]string, error)
	Delete(conversationID string) error
}

// InMemoryStore is a volatile ConversationStore implementation keeping
// conversations in a process local map. It is safe for concurrent access and
// best suited for tests or ephemeral demo servers. Each stored and returned
// conversation is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*core.Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*core.Conversation)}
}

// Save stores a clone of the provided conversation snapshot, overwriting any
// previous snapshot with the same id.
func (s *InMemoryStore) Save(conv *core.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("store: conversation must have an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv.Clone()
	return nil
}

// Get returns a clone of the stored conversation or ErrNotFound.
func (s *InMemoryStore) Get(conversationID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// List returns the stored conversation ids in lexical order.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a conversation. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
	return nil
}
