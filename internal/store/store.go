package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmorell/keychat/internal/model/chat"
)

// ErrSessionNotFound is returned when a message targets a session that
// does not exist. Messages are never stored without an owning session.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions and messages for the lifetime of the process.
type Store interface {
	ListSessions() []chat.Session
	GetSession(id string) (chat.Session, bool)
	CreateSession(title string) chat.Session
	DeleteSession(id string)
	DeleteAllSessions()

	ListMessages(sessionID string) []chat.Message
	CreateMessage(sessionID, role, content string) (chat.Message, error)
	DeleteMessages(sessionID string)
}

// MemoryStore implements Store with in-memory maps, suitable while the
// product has no durable backend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// ListSessions returns all sessions, most recently updated first.
func (s *MemoryStore) ListSessions() []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]chat.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// GetSession looks up a session by identifier.
func (s *MemoryStore) GetSession(id string) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// CreateSession provisions a session with the given title.
func (s *MemoryStore) CreateSession(title string) chat.Session {
	now := time.Now().UTC()
	session := chat.Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session
}

// DeleteSession removes the session and all of its messages. Deleting an
// unknown session is a no-op.
func (s *MemoryStore) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.messages, id)
	s.mu.Unlock()
}

// DeleteAllSessions clears every session and every message.
func (s *MemoryStore) DeleteAllSessions() {
	s.mu.Lock()
	s.sessions = make(map[string]chat.Session)
	s.messages = make(map[string][]chat.Message)
	s.mu.Unlock()
}

// ListMessages returns the session's messages in ascending timestamp
// order. Unknown sessions yield an empty slice, not an error.
func (s *MemoryStore) ListMessages(sessionID string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return []chat.Message{}
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Timestamp.Before(copied[j].Timestamp)
	})
	return copied
}

// CreateMessage appends a message to the session history and advances the
// owning session's UpdatedAt. Appending and touching the session happen
// under one lock acquisition.
func (s *MemoryStore) CreateMessage(sessionID, role, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	now := time.Now().UTC()
	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	s.messages[sessionID] = append(s.messages[sessionID], message)

	session.UpdatedAt = now
	s.sessions[sessionID] = session

	return message, nil
}

// DeleteMessages clears a session's messages, keeping the session itself.
func (s *MemoryStore) DeleteMessages(sessionID string) {
	s.mu.Lock()
	if _, ok := s.messages[sessionID]; ok {
		s.messages[sessionID] = make([]chat.Message, 0, 16)
	}
	s.mu.Unlock()
}
