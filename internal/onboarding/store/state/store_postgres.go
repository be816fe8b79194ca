package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"keystone/internal/onboarding/models"
	"keystone/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in the onboarding_states table, one row
// per role and identity.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed snapshot store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, slot Slot) (models.Snapshot, error) {
	query := `
		SELECT user_email, current_phase, current_section, form_data, completed_sections, last_saved_at
		FROM onboarding_states
		WHERE role = $1 AND identity = $2
	`
	var (
		snap      models.Snapshot
		formData  []byte
		completed pq.StringArray
		lastSaved sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, string(slot.Role), slot.Identity).Scan(
		&snap.UserEmail, &snap.CurrentPhase, &snap.CurrentSection, &formData, &completed, &lastSaved,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, sentinel.ErrNotFound
		}
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	snap.FormData = formData
	snap.CompletedSections = []string(completed)
	if snap.CompletedSections == nil {
		snap.CompletedSections = []string{}
	}
	if lastSaved.Valid {
		t := lastSaved.Time.UTC()
		snap.LastSavedAt = &t
	}
	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, slot Slot, snap models.Snapshot) error {
	formData := []byte(snap.FormData)
	if len(formData) == 0 {
		formData = []byte("{}")
	}
	completed := snap.CompletedSections
	if completed == nil {
		completed = []string{}
	}
	var lastSaved sql.NullTime
	if snap.LastSavedAt != nil {
		lastSaved = sql.NullTime{Time: *snap.LastSavedAt, Valid: true}
	}
	query := `
		INSERT INTO onboarding_states (role, identity, user_email, current_phase, current_section, form_data, completed_sections, last_saved_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (role, identity) DO UPDATE SET
			user_email = EXCLUDED.user_email,
			current_phase = EXCLUDED.current_phase,
			current_section = EXCLUDED.current_section,
			form_data = EXCLUDED.form_data,
			completed_sections = EXCLUDED.completed_sections,
			last_saved_at = EXCLUDED.last_saved_at,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		string(slot.Role), slot.Identity, snap.UserEmail, snap.CurrentPhase, snap.CurrentSection,
		string(formData), pq.Array(completed), lastSaved,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, slot Slot) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM onboarding_states WHERE role = $1 AND identity = $2`, string(slot.Role), slot.Identity)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
