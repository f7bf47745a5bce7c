package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/forgeloop/toolwright/pkg/memory"
	"go.uber.org/zap"
)

// Manager is the process-lifetime cache of conversation contexts, keyed by
// userID+sessionID. It is an explicitly owned object with injectable storage
// and a Close, not a hidden singleton: contexts live until Close or until the
// idle sweep evicts them.
type Manager struct {
	memories *memory.Store
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	contexts map[string]*Context
	closed   bool
}

func NewManager(memories *memory.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		memories: memories,
		log:      log,
		now:      time.Now,
		contexts: make(map[string]*Context),
	}
}

func contextKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// GetOrCreate returns the cached context for (userID, sessionID), loading
// memory and preferences on first use. Loads degrade to documented defaults
// and never fail the call.
func (m *Manager) GetOrCreate(ctx context.Context, userID, sessionID string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := contextKey(userID, sessionID)
	if existing, ok := m.contexts[key]; ok {
		return existing
	}

	cc := &Context{
		UserID:      userID,
		SessionID:   sessionID,
		Messages:    []Message{},
		Preferences: m.memories.LoadPreferences(ctx, userID),
		mem:         m.memories.LoadMemory(ctx, userID),
		LastActive:  m.now(),
	}
	m.contexts[key] = cc
	m.log.Debug("conversation context created",
		zap.String("user_id", userID), zap.String("session_id", sessionID))
	return cc
}

// RefreshMemory replaces the cached memory snapshot for every context owned
// by userID, so later enrichment sees a just-recorded build outcome.
func (m *Manager) RefreshMemory(userID string, mem *memory.PersistentMemory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cc := range m.contexts {
		if cc.UserID == userID {
			cc.SetMemory(mem)
		}
	}
}

// EvictIdle drops contexts whose last activity is older than ttl, returning
// how many were evicted. Persistent memory is unaffected; only the in-process
// cache shrinks.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	evicted := 0
	for key, cc := range m.contexts {
		if cc.LastActive.Before(cutoff) {
			delete(m.contexts, key)
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Info("evicted idle conversation contexts", zap.Int("count", evicted))
	}
	return evicted
}

// Len reports the number of cached contexts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts)
}

// Close drops all cached contexts. Further GetOrCreate calls rebuild them.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts = make(map[string]*Context)
	m.closed = true
}
