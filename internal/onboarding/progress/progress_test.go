package progress

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
)

type ProgressSuite struct {
	suite.Suite
	sponsor  *schema.Schema
	investor *schema.Schema
}

func TestProgressSuite(t *testing.T) {
	suite.Run(t, new(ProgressSuite))
}

func (s *ProgressSuite) SetupSuite() {
	var err error
	s.sponsor, err = schema.LoadEmbedded(models.RoleSponsor)
	s.Require().NoError(err)
	s.investor, err = schema.LoadEmbedded(models.RoleInvestor)
	s.Require().NoError(err)
}

func (s *ProgressSuite) TestLegacyMode() {
	sync := New(ModeLegacy)

	s.Run("step 7 with five sections per phase is phase 2 section 1", func() {
		res := sync.Resolve(s.sponsor, 7, nil)
		s.Equal(schema.Coordinate{Phase: 2, Section: 1}, res.Position)
		s.True(res.InSchema)
	})

	s.Run("density constant is configurable", func() {
		res := New(ModeLegacy, WithSectionsPerPhase(3)).Resolve(s.sponsor, 7, nil)
		s.Equal(schema.Coordinate{Phase: 3, Section: 0}, res.Position)
	})

	s.Run("non-positive density keeps the default", func() {
		res := New(ModeLegacy, WithSectionsPerPhase(0)).Resolve(s.sponsor, 7, nil)
		s.Equal(schema.Coordinate{Phase: 2, Section: 1}, res.Position)
	})
}

// The legacy constant disagrees with the schema whenever a phase does not
// hold exactly five sections.
func (s *ProgressSuite) TestModesDiverge() {
	legacy := New(ModeLegacy)
	schemaMode := New(ModeSchema)

	s.Run("sponsor step 9 lands past phase 2 in legacy mode", func() {
		l := legacy.Resolve(s.sponsor, 9, nil)
		s.Equal(schema.Coordinate{Phase: 2, Section: 3}, l.Position)
		s.False(l.InSchema)

		r := schemaMode.Resolve(s.sponsor, 9, nil)
		s.Equal(schema.Coordinate{Phase: 3, Section: 0}, r.Position)
		s.True(r.InSchema)
	})

	s.Run("investor step 4 starts phase 2 only in schema mode", func() {
		s.Equal(schema.Coordinate{Phase: 1, Section: 3}, legacy.Resolve(s.investor, 4, nil).Position)
		s.Equal(schema.Coordinate{Phase: 2, Section: 0}, schemaMode.Resolve(s.investor, 4, nil).Position)
	})

	s.Run("sponsor phase 1 agrees in both modes", func() {
		for step := 1; step <= 7; step++ {
			s.Equal(legacy.Resolve(s.sponsor, step, nil).Position, schemaMode.Resolve(s.sponsor, step, nil).Position, "step %d", step)
		}
	})
}

func (s *ProgressSuite) TestCompletedSteps() {
	sync := New(ModeSchema)

	res := sync.Resolve(s.sponsor, 3, []int{2, 1, 2, 0, 42})
	s.Equal([]string{"company-overview", "investment-strategy"}, res.CompletedSections)

	res = New(ModeLegacy).Resolve(s.investor, 2, []int{4, 6})
	s.Equal([]string{"contact-details"}, res.CompletedSections, "legacy step 4 addresses no investor section")
}

func (s *ProgressSuite) TestOutOfRangeSteps() {
	sync := New(ModeSchema)

	s.Equal(schema.Coordinate{Phase: 1, Section: 0}, sync.Resolve(s.sponsor, 0, nil).Position)
	s.Equal(schema.Coordinate{Phase: 3, Section: 0}, sync.Resolve(s.sponsor, 50, nil).Position)
}

func (s *ProgressSuite) TestParseMode() {
	m, err := ParseMode("")
	s.Require().NoError(err)
	s.Equal(ModeSchema, m)

	m, err = ParseMode("legacy")
	s.Require().NoError(err)
	s.Equal(ModeLegacy, m)

	_, err = ParseMode("fancy")
	s.Error(err)
}
