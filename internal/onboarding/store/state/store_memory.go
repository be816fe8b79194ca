package state

import (
	"context"
	"sync"

	"keystone/internal/onboarding/models"
	"keystone/pkg/platform/sentinel"
)

// InMemory keeps encoded snapshots in a map. Snapshots are stored encoded so
// callers never share memory with the store.
type InMemory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{slots: make(map[string][]byte)}
}

func (s *InMemory) Load(_ context.Context, slot Slot) (models.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.slots[slot.Key()]
	s.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return decodeSnapshot(data)
}

func (s *InMemory) Save(_ context.Context, slot Slot, snap models.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.slots[slot.Key()] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemory) Delete(_ context.Context, slot Slot) error {
	s.mu.Lock()
	delete(s.slots, slot.Key())
	s.mu.Unlock()
	return nil
}

// Len reports how many slots are stored.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
