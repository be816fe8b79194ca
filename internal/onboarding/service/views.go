package service

import (
	"fmt"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/transform"
)

// StateView is the wizard state with the derived positions a client needs.
type StateView struct {
	State           models.WizardState `json:"state"`
	Position        schema.Coordinate  `json:"position"`
	CurrentSection  string             `json:"currentSectionKey,omitempty"`
	CompletedPhases []string           `json:"completedPhases"`
	TotalSteps      int                `json:"totalSteps"`
}

// SectionView is one section of a phase with the fields visible for the
// current answers.
type SectionView struct {
	schema.Section
	Completed     bool           `json:"completed"`
	VisibleFields []schema.Field `json:"visibleFields"`
}

// PhaseView is a phase resolved against the caller's state.
type PhaseView struct {
	Key         string        `json:"key"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Index       int           `json:"index"`
	Completed   bool          `json:"completed"`
	Sections    []SectionView `json:"sections"`
}

// SubmitResult reports a successful section submission.
type SubmitResult struct {
	Section  string                  `json:"section"`
	Congrats *schema.CongratsMessage `json:"congratsMessage,omitempty"`
	Warnings []transform.Warning     `json:"warnings,omitempty"`
	IsDraft  bool                    `json:"isDraft"`
	State    StateView               `json:"state"`
}

// PhaseNotFoundError is returned for an unknown phase slug. Redirect is the
// landing position the caller should navigate to instead.
type PhaseNotFoundError struct {
	Slug         string
	Redirect     schema.Coordinate
	RedirectSlug string
}

func (e *PhaseNotFoundError) Error() string {
	return fmt.Sprintf("phase %q not found", e.Slug)
}

func newStateView(sch *schema.Schema, st models.WizardState) StateView {
	pos := sch.Normalize(st.CurrentPhase, st.CurrentSection)
	view := StateView{
		State:           st,
		Position:        pos,
		CompletedPhases: []string{},
		TotalSteps:      sch.TotalSteps(),
	}
	if sec, ok := sch.SectionAt(pos); ok {
		view.CurrentSection = sec.Key
	}
	completed := st.CompletedSet()
	for i, p := range sch.Phases {
		if sch.PhaseCompleted(i+1, completed) {
			view.CompletedPhases = append(view.CompletedPhases, p.Key)
		}
	}
	return view
}

func newPhaseView(p schema.Phase, index int, st models.WizardState) PhaseView {
	completed := st.CompletedSet()
	view := PhaseView{
		Key:         p.Key,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Index:       index,
		Completed:   p.IsCompleted(completed),
		Sections:    make([]SectionView, len(p.Sections)),
	}
	for i, sec := range p.Sections {
		view.Sections[i] = SectionView{
			Section:       sec,
			Completed:     completed[sec.Key],
			VisibleFields: schema.VisibleFields(sec, st.FormData),
		}
	}
	return view
}
