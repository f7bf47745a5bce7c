package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/forgeloop/toolwright/pkg/store"
	"go.uber.org/zap"
)

// Store loads and saves per-user PersistentMemory and UserPreferences through
// the document store. Read failures degrade to documented defaults; write
// failures are returned to the caller.
//
// Concurrent completions for the same user are serialized through Update so a
// concurrently recorded ToolMemory entry is never lost to last-writer-wins.
type Store struct {
	docs store.Store
	log  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(docs store.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		docs:  docs,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// LoadMemory returns the user's persistent memory, or an empty memory when
// none exists or the read fails. It never returns an error.
func (s *Store) LoadMemory(ctx context.Context, userID string) *PersistentMemory {
	data, err := s.docs.Get(ctx, store.NamespaceMemory, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("memory load failed, using empty memory",
				zap.String("user_id", userID), zap.Error(err))
		}
		return EmptyMemory(userID)
	}

	mem := EmptyMemory(userID)
	if err := json.Unmarshal(data, mem); err != nil {
		s.log.Warn("memory document corrupt, using empty memory",
			zap.String("user_id", userID), zap.Error(err))
		return EmptyMemory(userID)
	}
	mem.UserID = userID
	return mem
}

// LoadPreferences returns the user's preferences, or defaults when none exist
// or the read fails. It never returns an error.
func (s *Store) LoadPreferences(ctx context.Context, userID string) UserPreferences {
	data, err := s.docs.Get(ctx, store.NamespacePreferences, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("preferences load failed, using defaults",
				zap.String("user_id", userID), zap.Error(err))
		}
		return DefaultPreferences(userID)
	}

	prefs := DefaultPreferences(userID)
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.log.Warn("preferences document corrupt, using defaults",
			zap.String("user_id", userID), zap.Error(err))
		return DefaultPreferences(userID)
	}
	prefs.UserID = userID
	return prefs
}

// SavePreferences persists the user's preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs UserPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.docs.Set(ctx, store.NamespacePreferences, prefs.UserID, data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Update runs fn against the user's current memory inside a per-user critical
// section and persists the result as a whole. This is the only mutation path
// for persistent memory.
func (s *Store) Update(ctx context.Context, userID string, fn func(*PersistentMemory) error) (*PersistentMemory, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	mem := s.LoadMemory(ctx, userID)
	if err := fn(mem); err != nil {
		return nil, fmt.Errorf("apply memory update: %w", err)
	}

	data, err := json.Marshal(mem)
	if err != nil {
		return nil, fmt.Errorf("encode memory: %w", err)
	}
	if err := s.docs.Set(ctx, store.NamespaceMemory, userID, data); err != nil {
		return nil, fmt.Errorf("save memory: %w", err)
	}
	return mem, nil
}
