package store

import (
	"sort"
	"sync"

	"codescout/internal/model"
	appErr "codescout/internal/pkg/errors"
)

// ConversationStore keeps each session's message list in memory. Appends from
// different queries may interleave, but each message is replaced atomically by
// id, so the single producer task owning a message never races with readers.
type ConversationStore struct {
	mu       sync.RWMutex
	messages map[string]map[string]model.Message // session id -> message id -> message
	order    map[string][]string                 // session id -> append order
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		messages: make(map[string]map[string]model.Message),
		order:    make(map[string][]string),
	}
}

// Append adds a message to its session's list.
func (s *ConversationStore) Append(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.messages[msg.SessionID]
	if byID == nil {
		byID = make(map[string]model.Message)
		s.messages[msg.SessionID] = byID
	}
	if _, exists := byID[msg.ID]; !exists {
		s.order[msg.SessionID] = append(s.order[msg.SessionID], msg.ID)
	}
	byID[msg.ID] = msg
}

// Replace swaps the stored message with the given one atomically. Unknown ids
// return ErrNotFound so a cancelled producer cannot resurrect a deleted
// conversation.
func (s *ConversationStore) Replace(msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.messages[msg.SessionID]
	if byID == nil {
		return appErr.ErrNotFound
	}
	if _, exists := byID[msg.ID]; !exists {
		return appErr.ErrNotFound
	}
	byID[msg.ID] = msg
	return nil
}

func (s *ConversationStore) Get(sessionID, messageID string) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.messages[sessionID]
	if byID == nil {
		return model.Message{}, appErr.ErrNotFound
	}
	msg, ok := byID[messageID]
	if !ok {
		return model.Message{}, appErr.ErrNotFound
	}
	return msg, nil
}

// List returns the session's messages in append order.
func (s *ConversationStore) List(sessionID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.messages[sessionID]
	if byID == nil {
		return nil
	}
	ids := s.order[sessionID]
	result := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := byID[id]; ok {
			result = append(result, msg)
		}
	}
	return result
}

// Delete drops a whole session's conversation.
func (s *ConversationStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	delete(s.order, sessionID)
}

// Sessions lists session ids holding at least one message, sorted for
// deterministic iteration.
func (s *ConversationStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.messages))
	for id := range s.messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
