package dal

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDAL implements DraftDAL using in-memory storage
type MemoryDAL struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
	activeID string
}

// NewMemoryDAL creates a new in-memory data access layer
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{
		sessions: make(map[string]*SessionRecord),
	}
}

func (m *MemoryDAL) SaveSession(ctx context.Context, session SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}

	stored := session
	stored.Picks = append([]PickRecord{}, session.Picks...)
	m.sessions[session.ID] = &stored
	m.activeID = session.ID
	return nil
}

func (m *MemoryDAL) AppendPick(ctx context.Context, sessionID string, pick PickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}

	for _, p := range session.Picks {
		if p.PickNumber == pick.PickNumber || p.PlayerID == pick.PlayerID {
			return fmt.Errorf("pick %d (%s) already recorded", pick.PickNumber, pick.PlayerID)
		}
	}

	session.Picks = append(session.Picks, pick)
	return nil
}

func (m *MemoryDAL) LoadActiveSession(ctx context.Context) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[m.activeID]
	if !ok {
		return nil, ErrNoSession
	}

	// Create copies to avoid race conditions
	out := *session
	out.Picks = make([]PickRecord, len(session.Picks))
	copy(out.Picks, session.Picks)
	return &out, nil
}

func (m *MemoryDAL) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeID = ""
	return nil
}

func (m *MemoryDAL) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}
