package models

import (
	"encoding/json"
	"slices"
	"time"
)

// Default wizard position for a fresh identity.
const (
	DefaultPhase   = 1
	DefaultSection = 0
)

// WizardState is one identity's position and collected answers.
// CurrentPhase is 1-based, CurrentSection is 0-based within the phase.
type WizardState struct {
	Identity          string     `json:"userEmail"`
	CurrentPhase      int        `json:"currentPhase"`
	CurrentSection    int        `json:"currentSection"`
	FormData          AnswerSet  `json:"formData"`
	CompletedSections []string   `json:"completedSections"`
	LastSavedAt       *time.Time `json:"lastSavedAt"`
}

// NewWizardState returns the default state for identity.
func NewWizardState(identity string) WizardState {
	return WizardState{
		Identity:          identity,
		CurrentPhase:      DefaultPhase,
		CurrentSection:    DefaultSection,
		FormData:          AnswerSet{},
		CompletedSections: []string{},
	}
}

// Clone copies the mutable parts of the state.
func (s WizardState) Clone() WizardState {
	out := s
	out.FormData = s.FormData.Clone()
	out.CompletedSections = slices.Clone(s.CompletedSections)
	if out.CompletedSections == nil {
		out.CompletedSections = []string{}
	}
	if s.LastSavedAt != nil {
		t := *s.LastSavedAt
		out.LastSavedAt = &t
	}
	return out
}

// IsCompleted reports whether key is in the completed-section set.
func (s WizardState) IsCompleted(key string) bool {
	return slices.Contains(s.CompletedSections, key)
}

// CompletedSet returns the completed sections as a lookup set.
func (s WizardState) CompletedSet() map[string]bool {
	out := make(map[string]bool, len(s.CompletedSections))
	for _, key := range s.CompletedSections {
		out[key] = true
	}
	return out
}

// Snapshot is the durable record of one identity's wizard. It holds exactly
// the persisted layout; FormData stays encoded so storage backends do not need
// the schema.
type Snapshot struct {
	UserEmail         string          `json:"userEmail"`
	CurrentPhase      int             `json:"currentPhase"`
	CurrentSection    int             `json:"currentSection"`
	FormData          json.RawMessage `json:"formData"`
	CompletedSections []string        `json:"completedSections"`
	LastSavedAt       *time.Time      `json:"lastSavedAt"`
}

// ToSnapshot encodes the state for persistence.
func (s WizardState) ToSnapshot() (Snapshot, error) {
	formData := s.FormData
	if formData == nil {
		formData = AnswerSet{}
	}
	encoded, err := json.Marshal(formData)
	if err != nil {
		return Snapshot{}, err
	}
	completed := s.CompletedSections
	if completed == nil {
		completed = []string{}
	}
	return Snapshot{
		UserEmail:         s.Identity,
		CurrentPhase:      s.CurrentPhase,
		CurrentSection:    s.CurrentSection,
		FormData:          encoded,
		CompletedSections: completed,
		LastSavedAt:       s.LastSavedAt,
	}, nil
}

// FromSnapshot decodes a persisted record using lookup for answer types.
func FromSnapshot(snap Snapshot, lookup FieldTypeLookup) (WizardState, error) {
	answers, err := DecodeAnswers(snap.FormData, lookup)
	if err != nil {
		return WizardState{}, err
	}
	completed := snap.CompletedSections
	if completed == nil {
		completed = []string{}
	}
	return WizardState{
		Identity:          snap.UserEmail,
		CurrentPhase:      snap.CurrentPhase,
		CurrentSection:    snap.CurrentSection,
		FormData:          answers,
		CompletedSections: completed,
		LastSavedAt:       snap.LastSavedAt,
	}, nil
}
