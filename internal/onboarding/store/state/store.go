// Package state persists wizard snapshots, one durable slot per role and
// identity.
package state

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"keystone/internal/onboarding/models"
)

// Slot addresses one identity's snapshot within a role.
type Slot struct {
	Role     models.Role
	Identity string
}

// Key is the namespaced storage key of the slot.
func (s Slot) Key() string {
	return fmt.Sprintf("onboarding:%s:%s", s.Role, s.Identity)
}

// Store is implemented by every persistence backend. Load returns
// sentinel.ErrNotFound for slots never written.
type Store interface {
	Load(ctx context.Context, slot Slot) (models.Snapshot, error)
	Save(ctx context.Context, slot Slot, snap models.Snapshot) error
	Delete(ctx context.Context, slot Slot) error
}

func encodeSnapshot(snap models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
