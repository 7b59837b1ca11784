package repository

import (
	"context"
	"sync"
	"time"

	"reserba/internal/models"
)

// MemorySessionStore is the in-process fallback when Redis is unavailable.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	byUser   map[int64]map[string]struct{}
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		byUser:   make(map[int64]map[string]struct{}),
	}
}

func (m *MemorySessionStore) Save(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *session
	m.sessions[session.Token] = &copied
	if m.byUser[session.UserID] == nil {
		m.byUser[session.UserID] = make(map[string]struct{})
	}
	m.byUser[session.UserID][session.Token] = struct{}{}
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if session.Expired(time.Now()) {
		_ = m.Delete(ctx, token)
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[token]; ok {
		delete(m.byUser[session.UserID], token)
	}
	delete(m.sessions, token)
	return nil
}

func (m *MemorySessionStore) RevokeUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token := range m.byUser[userID] {
		delete(m.sessions, token)
	}
	delete(m.byUser, userID)
	return nil
}
