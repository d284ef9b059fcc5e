// Package session keeps the conversation transcript of each chat session in memory.
package session

import (
	"sync"

	"github.com/tmc/langchaingo/memory"
)

// DefaultID is the session used by the interactive loop when none is given.
const DefaultID = "user_session"

// Store maps a session identifier to its chat history.
// Histories are created on first use and live as long as the store. Nothing is evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*memory.ChatMessageHistory
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*memory.ChatMessageHistory)}
}

// Get returns the history for id, creating an empty one if id has not been seen.
// The same pointer is returned on every call, so messages appended through it are
// visible to later lookups.
func (s *Store) Get(id string) *memory.ChatMessageHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.sessions[id]; ok {
		return h
	}
	h := memory.NewChatMessageHistory()
	s.sessions[id] = h
	return h
}
