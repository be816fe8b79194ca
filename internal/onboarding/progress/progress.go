// Package progress places the remote API's linear step counter onto the
// wizard's (phase, section) coordinates.
//
// Two modes exist. ModeSchema walks the schema's real section counts per
// phase. ModeLegacy assumes a fixed number of sections per phase, which
// drifts for every phase whose section count differs from that constant; it
// is kept so deployments can reproduce positions computed the old way.
package progress

import (
	"fmt"
	"slices"

	"keystone/internal/onboarding/schema"
)

// Mode selects how steps are placed.
type Mode string

const (
	ModeSchema Mode = "schema"
	ModeLegacy Mode = "legacy"
)

// DefaultSectionsPerPhase is the legacy density constant.
const DefaultSectionsPerPhase = 5

// ParseMode validates a configured mode; empty selects ModeSchema.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSchema:
		return ModeSchema, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown progress mode %q", s)
	}
}

// Result is a resolved server position.
type Result struct {
	Position schema.Coordinate
	// CompletedSections are the section keys of the completed steps that
	// exist in the schema, in step order.
	CompletedSections []string
	// InSchema is false when Position does not address a real section.
	InSchema bool
}

// Synchronizer resolves steps for one mode.
type Synchronizer struct {
	mode     Mode
	perPhase int
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSectionsPerPhase overrides the legacy density constant.
func WithSectionsPerPhase(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.perPhase = n
		}
	}
}

// New creates a Synchronizer.
func New(mode Mode, opts ...Option) *Synchronizer {
	s := &Synchronizer{mode: mode, perPhase: DefaultSectionsPerPhase}
	if s.mode == "" {
		s.mode = ModeSchema
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports the configured mode.
func (s *Synchronizer) Mode() Mode { return s.mode }

// Resolve places step and maps completedSteps onto section keys. Steps
// outside the schema are skipped from the completed list.
func (s *Synchronizer) Resolve(sch *schema.Schema, step int, completedSteps []int) Result {
	pos := s.position(sch, step)
	_, in := sch.SectionAt(pos)

	seen := map[string]bool{}
	var completed []string
	sorted := slices.Clone(completedSteps)
	slices.Sort(sorted)
	for _, cs := range sorted {
		key, ok := s.sectionKey(sch, cs)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		completed = append(completed, key)
	}
	return Result{Position: pos, CompletedSections: completed, InSchema: in}
}

func (s *Synchronizer) position(sch *schema.Schema, step int) schema.Coordinate {
	if step < 1 {
		return sch.Landing()
	}
	if s.mode == ModeLegacy {
		return s.legacy(step)
	}
	if c, ok := sch.Coordinate(step); ok {
		return c
	}
	// Past the last section: stay on the last one.
	return sch.Normalize(len(sch.Phases), len(sch.Phases[len(sch.Phases)-1].Sections)-1)
}

func (s *Synchronizer) legacy(step int) schema.Coordinate {
	return schema.Coordinate{
		Phase:   (step-1)/s.perPhase + 1,
		Section: (step - 1) % s.perPhase,
	}
}

func (s *Synchronizer) sectionKey(sch *schema.Schema, step int) (string, bool) {
	if step < 1 {
		return "", false
	}
	if s.mode == ModeLegacy {
		sec, ok := sch.SectionAt(s.legacy(step))
		return sec.Key, ok
	}
	return sch.SectionKeyAt(step)
}
