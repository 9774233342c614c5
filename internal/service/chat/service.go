package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/mindease/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRole     = errors.New("message role must be user or assistant")
)

// Service owns session lifecycles and their in-memory transcripts.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	now      func() time.Time
}

// NewService bootstraps an empty in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		now:      time.Now,
	}
}

// CreateSession starts a new session with an optional wellness goal.
func (s *Service) CreateSession(_ context.Context, goal string) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		Goal:      strings.TrimSpace(goal),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// EndSession removes the session and discards its transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	return nil
}

// SetGoal replaces the session's wellness goal.
func (s *Service) SetGoal(_ context.Context, sessionID, goal string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	session.Goal = strings.TrimSpace(goal)
	s.sessions[sessionID] = session
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// AppendMessages appends messages to the transcript in order, all or nothing.
func (s *Service) AppendMessages(_ context.Context, sessionID string, messages ...chat.Message) ([]chat.Message, error) {
	for _, m := range messages {
		if m.Role != chat.RoleUser && m.Role != chat.RoleAssistant {
			return nil, ErrInvalidRole
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}

	stored := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		m.ID = uuid.NewString()
		m.SessionID = sessionID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now().UTC()
		}
		stored = append(stored, m)
	}

	s.messages[sessionID] = append(s.messages[sessionID], stored...)
	return stored, nil
}

// LoadTranscript returns a copy of the stored messages for the session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
