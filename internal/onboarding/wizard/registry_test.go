package wizard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/store/state"
	"keystone/internal/onboarding/store/state/mocks"
	"keystone/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	backend  *state.InMemory
	registry *Registry
	events   []Event
	mu       sync.Mutex
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	sch, err := schema.LoadEmbedded(models.RoleInvestor)
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.backend = state.NewInMemory()
	s.events = nil
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.registry = NewRegistry(models.RoleInvestor, sch, s.backend,
		WithRegistryLogger(logger),
		WithStoreOptions(WithLogger(logger)),
		WithListener(func(_ context.Context, e Event) {
			s.mu.Lock()
			s.events = append(s.events, e)
			s.mu.Unlock()
		}),
	)
}

func (s *RegistrySuite) TestReusesStores() {
	first, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	second, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, s.registry.Len())
	s.Equal(models.RoleInvestor, first.Role())
}

func (s *RegistrySuite) TestGuestKey() {
	guest, err := s.registry.Get(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("", guest.Identity())
	s.Equal(GuestIdentity, Key(""))

	again, err := s.registry.Get(s.ctx, "")
	s.Require().NoError(err)
	s.Same(guest, again)
}

func (s *RegistrySuite) TestConcurrentFirstAccessSharesOneStore() {
	const workers = 32
	stores := make([]*Store, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := s.registry.Get(s.ctx, "race@example.com")
			s.NoError(err)
			stores[i] = st
		}(i)
	}
	wg.Wait()

	for _, st := range stores {
		s.Same(stores[0], st)
	}
	s.Equal(1, s.registry.Len())
}

func (s *RegistrySuite) TestEvictRehydratesFromDurableSlot() {
	store, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Require().NoError(store.MarkSectionCompleted(s.ctx, "investor-overview"))

	s.registry.Evict("ada@example.com")
	s.Zero(s.registry.Len())

	reloaded, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.NotSame(store, reloaded)
	s.Equal([]string{"investor-overview"}, reloaded.State().CompletedSections)
}

func (s *RegistrySuite) TestClearDoesNotLeakIntoGuestSlot() {
	held, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Require().NoError(held.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Acme")}))

	s.Require().NoError(s.registry.Clear(s.ctx, "ada@example.com"))
	s.Zero(s.registry.Len())

	err = held.UpdateFormData(s.ctx, models.AnswerSet{"company_name": models.Text("Ada Secret Capital")})
	s.ErrorIs(err, ErrCleared)

	guest, err := s.registry.Get(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(guest.State().FormData)

	fresh, err := s.registry.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.NotSame(held, fresh)
	s.Empty(fresh.State().FormData)
}

func (s *RegistrySuite) TestHydrationOutlivesCancelledCaller() {
	ctrl := gomock.NewController(s.T())
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().
		Load(gomock.Any(), state.Slot{Role: models.RoleInvestor, Identity: "ada@example.com"}).
		DoAndReturn(func(ctx context.Context, _ state.Slot) (models.Snapshot, error) {
			if err := ctx.Err(); err != nil {
				return models.Snapshot{}, err
			}
			return models.Snapshot{}, sentinel.ErrNotFound
		})

	reg := NewRegistry(models.RoleInvestor, s.registry.Schema(), backend)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	store, err := reg.Get(ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("ada@example.com", store.Identity())
}

func (s *RegistrySuite) TestReset() {
	_, err := s.registry.Get(s.ctx, "a@example.com")
	s.Require().NoError(err)
	_, err = s.registry.Get(s.ctx, "b@example.com")
	s.Require().NoError(err)
	s.Equal(2, s.registry.Len())

	s.registry.Reset()
	s.Zero(s.registry.Len())
}

func (s *RegistrySuite) TestListenersAttachToEveryStore() {
	a, err := s.registry.Get(s.ctx, "a@example.com")
	s.Require().NoError(err)
	b, err := s.registry.Get(s.ctx, "b@example.com")
	s.Require().NoError(err)

	s.Require().NoError(a.SetCurrentSection(s.ctx, 1))
	s.Require().NoError(b.ResetOnboarding(s.ctx))

	s.Require().Len(s.events, 2)
	s.Equal("a@example.com", s.events[0].Identity)
	s.Equal(OpOnboardingReset, s.events[1].Op)
}

func (s *RegistrySuite) TestRegistries() {
	rs := Registries{models.RoleInvestor: s.registry}
	r, ok := rs.Get(models.RoleInvestor)
	s.True(ok)
	s.Same(s.registry, r)
	_, ok = rs.Get(models.RoleSponsor)
	s.False(ok)
}
