package wizard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/progress"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/store/state"
	"keystone/internal/onboarding/store/state/mocks"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

type StoreSuite struct {
	suite.Suite
	ctx     context.Context
	schema  *schema.Schema
	backend *state.InMemory
	logger  *slog.Logger
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	var err error
	s.schema, err = schema.LoadEmbedded(models.RoleSponsor)
	s.Require().NoError(err)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	s.backend = state.NewInMemory()
}

func (s *StoreSuite) newStore(identity string, opts ...Option) *Store {
	opts = append([]Option{WithLogger(s.logger)}, opts...)
	store := NewStore(models.RoleSponsor, s.schema, s.backend, opts...)
	s.Require().NoError(store.SetIdentity(s.ctx, identity))
	return store
}

func (s *StoreSuite) TestDefaults() {
	store := s.newStore("ada@example.com")
	st := store.State()

	s.Equal("ada@example.com", st.Identity)
	s.Equal(1, st.CurrentPhase)
	s.Equal(0, st.CurrentSection)
	s.Empty(st.FormData)
	s.Empty(st.CompletedSections)
	s.Nil(st.LastSavedAt)
	s.Zero(s.backend.Len(), "binding an identity never writes")
}

func (s *StoreSuite) TestUpdateFormData() {
	store := s.newStore("ada@example.com")

	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme"), "website": models.Text("https://a.test")}))
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"website": models.Text("https://b.test")}))

	st := store.State()
	s.Equal(models.AnswerSet{"company_name": models.Text("Acme"), "website": models.Text("https://b.test")}, st.FormData)
	s.Require().NotNil(st.LastSavedAt)
	s.Equal(requestcontext.Now(s.ctx), *st.LastSavedAt)

	reloaded := s.newStore("ada@example.com")
	s.Equal(st, reloaded.State(), "state survives a reload from the durable slot")
}

func (s *StoreSuite) TestUpdateFromAPIResponseMergesLikeFormData() {
	store := s.newStore("ada@example.com")
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme")}))
	s.Require().NoError(store.UpdateFromAPIResponse(s.ctx, models.AnswerSet{"website": models.Text("https://a.test")}))

	s.Len(store.State().FormData, 2)
}

func (s *StoreSuite) TestMarkSectionCompletedIsIdempotent() {
	store := s.newStore("ada@example.com")

	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "company-overview"))
	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "company-overview"))

	st := store.State()
	s.Equal([]string{"company-overview"}, st.CompletedSections)

	phase := schema.Phase{Key: "only", Sections: []schema.Section{{Key: "company-overview"}}}
	s.True(phase.IsCompleted(st.CompletedSet()))
}

func (s *StoreSuite) TestPositionWrites() {
	store := s.newStore("ada@example.com")

	s.Require().NoError(store.SetCurrentPhase(s.ctx, 2))
	s.Require().NoError(store.SetCurrentSection(s.ctx, 7))

	st := store.State()
	s.Equal(2, st.CurrentPhase)
	s.Equal(7, st.CurrentSection, "out-of-range positions are stored as given")
	s.Equal(schema.Coordinate{Phase: 2, Section: 2}, store.Position())

	s.Require().NoError(store.SetPosition(s.ctx, 1, 3))
	s.Equal(schema.Coordinate{Phase: 1, Section: 3}, store.Position())
}

// Switching A -> B -> A leaves A exactly as a fresh store for A would see it.
func (s *StoreSuite) TestIdentityIsolation() {
	store := s.newStore("a@example.com")
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("A Corp")}))
	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "company-overview"))

	s.Require().NoError(store.SetIdentity(s.ctx, "b@example.com"))
	st := store.State()
	s.Equal("b@example.com", st.Identity)
	s.Empty(st.FormData, "no answers leak across identities")
	s.Empty(st.CompletedSections)

	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("B Corp")}))
	s.Require().NoError(store.SetIdentity(s.ctx, "a@example.com"))

	fresh := s.newStore("a@example.com")
	s.Equal(fresh.State(), store.State())
	s.Equal(models.Text("A Corp"), store.State().FormData["company_name"])
}

func (s *StoreSuite) TestSetIdentitySameIDIsNoop() {
	store := s.newStore("a@example.com")
	s.Require().NoError(store.SetCurrentPhase(s.ctx, 2))

	s.Require().NoError(s.backend.Delete(s.ctx, state.Slot{Role: models.RoleSponsor, Identity: "a@example.com"}))
	s.Require().NoError(store.SetIdentity(s.ctx, "a@example.com"))
	s.Equal(2, store.State().CurrentPhase, "re-confirming the identity does not reload")
}

func (s *StoreSuite) TestGuestSlot() {
	store := s.newStore("")
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Guest Co")}))

	_, err := s.backend.Load(s.ctx, state.Slot{Role: models.RoleSponsor, Identity: GuestIdentity})
	s.Require().NoError(err)
}

func (s *StoreSuite) TestResetAndClear() {
	store := s.newStore("ada@example.com")
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme")}))
	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "company-overview"))
	s.Require().NoError(store.SetPosition(s.ctx, 2, 1))

	s.Run("reset keeps identity", func() {
		s.Require().NoError(store.ResetOnboarding(s.ctx))
		s.Equal(models.NewWizardState("ada@example.com"), store.State())
	})

	s.Run("clear forgets identity and deletes the slot", func() {
		s.Require().NoError(store.ClearUserData(s.ctx))
		s.Equal(models.NewWizardState(""), store.State())
		_, err := s.backend.Load(s.ctx, state.Slot{Role: models.RoleSponsor, Identity: "ada@example.com"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestClearedStoreRefusesWrites() {
	store := s.newStore("ada@example.com")
	s.Require().NoError(store.ClearUserData(s.ctx))

	err := store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Ada Secret Capital")})
	s.Require().ErrorIs(err, ErrCleared)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.ErrorIs(store.MarkSectionCompleted(s.ctx, "company-overview"), ErrCleared)
	_, err = store.SetProgressFromAPI(s.ctx, 3, nil)
	s.ErrorIs(err, ErrCleared)

	_, err = s.backend.Load(s.ctx, state.Slot{Role: models.RoleSponsor, Identity: GuestIdentity})
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Run("clearing again leaves the guest slot alone", func() {
		guest := s.newStore("")
		s.Require().NoError(guest.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Guest Co")}))
		s.Require().NoError(store.ClearUserData(s.ctx))
		_, err := s.backend.Load(s.ctx, state.Slot{Role: models.RoleSponsor, Identity: GuestIdentity})
		s.NoError(err)
	})

	s.Run("rebinding allows writes again", func() {
		s.Require().NoError(store.SetIdentity(s.ctx, "ada@example.com"))
		s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme")}))
		s.Equal(models.Text("Acme"), store.State().FormData["company_name"])
	})
}

func (s *StoreSuite) TestSetProgressFromAPI() {
	s.Run("legacy density places step 7 at phase 2 section 1", func() {
		store := s.newStore("legacy@example.com", WithSynchronizer(progress.New(progress.ModeLegacy)))
		res, err := store.SetProgressFromAPI(s.ctx, 7, []int{1, 2})
		s.Require().NoError(err)
		s.True(res.InSchema)

		st := store.State()
		s.Equal(2, st.CurrentPhase)
		s.Equal(1, st.CurrentSection)
		s.ElementsMatch([]string{"company-overview", "investment-strategy"}, st.CompletedSections)
	})

	s.Run("completed set only grows", func() {
		store := s.newStore("grow@example.com")
		s.Require().NoError(store.MarkSectionCompleted(s.ctx, "documents"))

		_, err := store.SetProgressFromAPI(s.ctx, 2, []int{1})
		s.Require().NoError(err)
		s.ElementsMatch([]string{"documents", "company-overview"}, store.State().CompletedSections)
	})
}

func (s *StoreSuite) TestListeners() {
	store := s.newStore("ada@example.com")

	var events []Event
	cancel := store.Subscribe(func(_ context.Context, e Event) { events = append(events, e) })

	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "company-overview"))
	s.Require().NoError(store.SetCurrentPhase(s.ctx, 2))
	cancel()
	s.Require().NoError(store.SetCurrentPhase(s.ctx, 1))

	s.Require().Len(events, 2)
	s.Equal(OpSectionCompleted, events[0].Op)
	s.Equal("company-overview", events[0].Section)
	s.Equal(models.RoleSponsor, events[0].Role)
	s.Equal(OpPositionChanged, events[1].Op)
	s.Equal(2, events[1].State.CurrentPhase)
}

func (s *StoreSuite) TestPersistFailureRollsBack() {
	ctrl := gomock.NewController(s.T())
	backend := mocks.NewMockStore(ctrl)
	slot := state.Slot{Role: models.RoleSponsor, Identity: "ada@example.com"}
	boom := errors.New("disk full")

	backend.EXPECT().Load(gomock.Any(), slot).Return(models.Snapshot{}, sentinel.ErrNotFound)
	backend.EXPECT().Save(gomock.Any(), slot, gomock.Any()).Return(nil)
	backend.EXPECT().Save(gomock.Any(), slot, gomock.Any()).Return(boom)
	backend.EXPECT().Delete(gomock.Any(), slot).Return(boom)

	store := NewStore(models.RoleSponsor, s.schema, backend, WithLogger(s.logger))
	s.Require().NoError(store.SetIdentity(s.ctx, "ada@example.com"))
	s.Require().NoError(store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme")}))
	before := store.State()

	notified := false
	store.Subscribe(func(context.Context, Event) { notified = true })

	err := store.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Changed")})
	s.Require().ErrorIs(err, boom)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(before, store.State())

	err = store.ClearUserData(s.ctx)
	s.Require().Error(err)
	s.Equal(before, store.State())
	s.False(notified)
}

func (s *StoreSuite) TestUnreadableSlot() {
	ctrl := gomock.NewController(s.T())
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().Load(gomock.Any(), gomock.Any()).Return(models.Snapshot{FormData: []byte("{broken")}, nil)

	store := NewStore(models.RoleSponsor, s.schema, backend, WithLogger(s.logger))
	err := store.SetIdentity(s.ctx, "ada@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
