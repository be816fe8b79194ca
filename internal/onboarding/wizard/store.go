// Package wizard holds the per-identity wizard state machine and the registry
// that hands out one Store per identity.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/progress"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/store/state"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

// GuestIdentity is the storage key used while no identity is known.
const GuestIdentity = "guest"

// ErrCleared is returned by mutations on a store whose user data was cleared
// and that has not been bound to an identity since.
var ErrCleared = dErrors.New(dErrors.CodeConflict, "onboarding state was cleared, reload the wizard")

// Op names the mutation that produced an Event.
type Op string

const (
	OpAnswersUpdated   Op = "answers_updated"
	OpPositionChanged  Op = "position_changed"
	OpSectionCompleted Op = "section_completed"
	OpOnboardingReset  Op = "onboarding_reset"
	OpUserDataCleared  Op = "user_data_cleared"
	OpProgressSynced   Op = "progress_synced"
)

// Event is delivered to listeners after a mutation was persisted.
type Event struct {
	Op       Op
	Role     models.Role
	Identity string
	// Section is set for OpSectionCompleted.
	Section string
	State   models.WizardState
}

// Listener observes persisted mutations. It runs on the caller's goroutine
// after the store lock is released.
type Listener func(ctx context.Context, e Event)

// Store is one identity's wizard state. Every mutation is applied in memory
// and persisted before returning; when persisting fails the in-memory state
// is rolled back and the error returned.
type Store struct {
	role    models.Role
	schema  *schema.Schema
	backend state.Store
	sync    *progress.Synchronizer
	logger  *slog.Logger

	mu    sync.Mutex
	state models.WizardState
	bound bool
	// cleared is set by ClearUserData; writes fail until SetIdentity rebinds.
	cleared bool

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSynchronizer sets how server steps are placed. Defaults to schema mode.
func WithSynchronizer(sync *progress.Synchronizer) Option {
	return func(s *Store) {
		if sync != nil {
			s.sync = sync
		}
	}
}

// NewStore creates a store for role in its default state. Call SetIdentity
// to bind it to an identity's durable slot.
func NewStore(role models.Role, sch *schema.Schema, backend state.Store, opts ...Option) *Store {
	s := &Store{
		role:      role,
		schema:    sch,
		backend:   backend,
		sync:      progress.New(progress.ModeSchema),
		logger:    slog.Default(),
		state:     models.NewWizardState(""),
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Role is the wizard this store belongs to.
func (s *Store) Role() models.Role { return s.role }

// State returns a copy of the current state.
func (s *Store) State() models.WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Identity returns the bound identity, empty for guests.
func (s *Store) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Identity
}

// Position returns the current position clamped to the schema.
func (s *Store) Position() schema.Coordinate {
	st := s.State()
	return s.schema.Normalize(st.CurrentPhase, st.CurrentSection)
}

// Subscribe registers fn for future events and returns its cancel function.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// SetIdentity binds the store to id. A different id resets the state to
// defaults and rehydrates it from id's own slot; nothing is written. The same
// id is a no-op.
func (s *Store) SetIdentity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound && id == s.state.Identity {
		return nil
	}
	loaded, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	s.state = loaded
	s.bound = true
	s.cleared = false
	return nil
}

func (s *Store) load(ctx context.Context, id string) (models.WizardState, error) {
	fresh := models.NewWizardState(id)
	snap, err := s.backend.Load(ctx, s.slot(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return fresh, nil
	}
	if err != nil {
		return models.WizardState{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load onboarding state")
	}
	loaded, err := models.FromSnapshot(snap, s.schema.FieldTypes())
	if err != nil {
		return models.WizardState{}, dErrors.Wrap(err, dErrors.CodeInternal, "stored onboarding state is unreadable")
	}
	loaded.Identity = id
	return loaded, nil
}

// SetCurrentPhase writes the phase without bounds checks; readers clamp via
// Position.
func (s *Store) SetCurrentPhase(ctx context.Context, phase int) error {
	return s.mutate(ctx, OpPositionChanged, "", func(st *models.WizardState) {
		st.CurrentPhase = phase
	})
}

// SetCurrentSection writes the section without bounds checks.
func (s *Store) SetCurrentSection(ctx context.Context, section int) error {
	return s.mutate(ctx, OpPositionChanged, "", func(st *models.WizardState) {
		st.CurrentSection = section
	})
}

// SetPosition writes phase and section in one persisted step.
func (s *Store) SetPosition(ctx context.Context, phase, section int) error {
	return s.mutate(ctx, OpPositionChanged, "", func(st *models.WizardState) {
		st.CurrentPhase = phase
		st.CurrentSection = section
	})
}

// UpdateFormData shallow-merges partial into the answers and stamps
// lastSavedAt.
func (s *Store) UpdateFormData(ctx context.Context, partial models.AnswerSet) error {
	now := requestcontext.Now(ctx).UTC()
	return s.mutate(ctx, OpAnswersUpdated, "", func(st *models.WizardState) {
		st.FormData = st.FormData.Merge(partial)
		st.LastSavedAt = &now
	})
}

// UpdateFromAPIResponse merges answers decoded from a server response, with
// the same semantics as UpdateFormData.
func (s *Store) UpdateFromAPIResponse(ctx context.Context, answers models.AnswerSet) error {
	return s.UpdateFormData(ctx, answers)
}

// MarkSectionCompleted adds key to the completed set. Marking twice keeps a
// single entry.
func (s *Store) MarkSectionCompleted(ctx context.Context, key string) error {
	return s.mutate(ctx, OpSectionCompleted, key, func(st *models.WizardState) {
		if !st.IsCompleted(key) {
			st.CompletedSections = append(st.CompletedSections, key)
		}
	})
}

// ResetOnboarding returns to the first section with no answers, keeping the
// identity.
func (s *Store) ResetOnboarding(ctx context.Context) error {
	return s.mutate(ctx, OpOnboardingReset, "", func(st *models.WizardState) {
		*st = models.NewWizardState(st.Identity)
	})
}

// ClearUserData resets the state, forgets the identity and deletes the
// identity's durable slot. Later mutations return ErrCleared until the store
// is rebound with SetIdentity; clearing twice is a no-op.
func (s *Store) ClearUserData(ctx context.Context) error {
	s.mu.Lock()
	if s.cleared {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	if err := s.backend.Delete(ctx, s.slot(prev.Identity)); err != nil {
		s.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to clear onboarding state")
	}
	s.state = models.NewWizardState("")
	s.bound = false
	s.cleared = true
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(ctx, Event{Op: OpUserDataCleared, Role: s.role, Identity: prev.Identity, State: snapshot})
	return nil
}

// SetProgressFromAPI moves to the position the server reported and merges the
// completed steps into the completed set. The set never shrinks.
func (s *Store) SetProgressFromAPI(ctx context.Context, step int, completedSteps []int) (progress.Result, error) {
	res := s.sync.Resolve(s.schema, step, completedSteps)
	if !res.InSchema {
		s.logger.WarnContext(ctx, "server step does not address a section",
			"role", s.role,
			"step", step,
			"mode", s.sync.Mode(),
			"phase", res.Position.Phase,
			"section", res.Position.Section,
		)
	}
	err := s.mutate(ctx, OpProgressSynced, "", func(st *models.WizardState) {
		st.CurrentPhase = res.Position.Phase
		st.CurrentSection = res.Position.Section
		for _, key := range res.CompletedSections {
			if !st.IsCompleted(key) {
				st.CompletedSections = append(st.CompletedSections, key)
			}
		}
	})
	return res, err
}

func (s *Store) mutate(ctx context.Context, op Op, section string, apply func(*models.WizardState)) error {
	s.mu.Lock()
	if s.cleared {
		s.mu.Unlock()
		return ErrCleared
	}
	prev := s.state
	next := s.state.Clone()
	apply(&next)
	s.state = next
	if err := s.persist(ctx); err != nil {
		s.state = prev
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "onboarding state not persisted, rolled back",
			"role", s.role,
			"op", op,
			"error", err,
		)
		return err
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(ctx, Event{Op: op, Role: s.role, Identity: snapshot.Identity, Section: section, State: snapshot})
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	snap, err := s.state.ToSnapshot()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode onboarding state")
	}
	if err := s.backend.Save(ctx, s.slot(s.state.Identity), snap); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save onboarding state")
	}
	return nil
}

func (s *Store) slot(id string) state.Slot {
	if id == "" {
		id = GuestIdentity
	}
	return state.Slot{Role: s.role, Identity: id}
}

func (s *Store) notify(ctx context.Context, e Event) {
	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()
	for _, l := range listeners {
		l(ctx, e)
	}
}
