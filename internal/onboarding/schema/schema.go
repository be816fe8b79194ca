// Package schema describes the onboarding wizard: ordered phases of ordered
// sections of fields, with conditional visibility and validation rules.
// A Schema is built once at load time and never mutated.
package schema

import (
	"regexp"

	"keystone/internal/onboarding/models"
)

// Option is one label/value pair of a select or choice field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Validation holds the per-field rules evaluated at submit time.
type Validation struct {
	Required         bool     `json:"required,omitempty"`
	MinLength        int      `json:"minLength,omitempty"`
	MaxLength        int      `json:"maxLength,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`
	AllowedFileTypes []string `json:"allowedFileTypes,omitempty"`
	MaxFiles         int      `json:"maxFiles,omitempty"`
	MaxFileSize      int64    `json:"maxFileSize,omitempty"`

	pattern *regexp.Regexp
}

// Condition makes a field visible only while the answer to Field is one of
// Values.
type Condition struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Field is one collectible input.
type Field struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Type        models.FieldType `json:"type"`
	Placeholder string           `json:"placeholder,omitempty"`
	HelpText    string           `json:"helpText,omitempty"`
	Options     []Option         `json:"options,omitempty"`
	Validation  Validation       `json:"validation"`
	Condition   *Condition       `json:"condition,omitempty"`
}

// CongratsMessage is shown once after a section is submitted successfully.
type CongratsMessage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
}

// Section is one form page.
type Section struct {
	Key         string           `json:"key"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Fields      []Field          `json:"fields"`
	Congrats    *CongratsMessage `json:"congratsMessage,omitempty"`
}

// FieldKeys returns the keys of every field in declaration order.
func (s Section) FieldKeys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Phase is a top-level onboarding stage. Table names the field mapping used
// to translate its answers for the remote API.
type Phase struct {
	Key         string    `json:"key"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Table       string    `json:"-"`
	Sections    []Section `json:"sections"`
}

// IsCompleted reports whether every section of the phase is in completed, or
// the phase key itself was marked.
func (p Phase) IsCompleted(completed map[string]bool) bool {
	if completed[p.Key] {
		return true
	}
	if len(p.Sections) == 0 {
		return false
	}
	for _, s := range p.Sections {
		if !completed[s.Key] {
			return false
		}
	}
	return true
}

// Coordinate is a wizard position: 1-based phase, 0-based section.
type Coordinate struct {
	Phase   int `json:"phase"`
	Section int `json:"section"`
}

// Schema is the ordered list of phases for one role.
type Schema struct {
	Role   models.Role
	Phases []Phase

	fieldTypes map[string]models.FieldType
	fields     map[string]Field
	sections   map[string]sectionRef
}

type sectionRef struct {
	coord Coordinate
	step  int
}

// GetPhase returns the phase with slug. ok is false for unknown slugs.
func (s *Schema) GetPhase(slug string) (Phase, bool) {
	if i := s.GetPhaseIndex(slug); i >= 0 {
		return s.Phases[i], true
	}
	return Phase{}, false
}

// GetPhaseIndex returns the 0-based index of the phase with slug, or -1.
func (s *Schema) GetPhaseIndex(slug string) int {
	for i, p := range s.Phases {
		if p.Slug == slug {
			return i
		}
	}
	return -1
}

// PhaseAt returns the phase for a 1-based phase number.
func (s *Schema) PhaseAt(phase int) (Phase, bool) {
	if phase < 1 || phase > len(s.Phases) {
		return Phase{}, false
	}
	return s.Phases[phase-1], true
}

// Section looks up a section by key and returns its position.
func (s *Schema) Section(key string) (Section, Coordinate, bool) {
	ref, ok := s.sections[key]
	if !ok {
		return Section{}, Coordinate{}, false
	}
	return s.Phases[ref.coord.Phase-1].Sections[ref.coord.Section], ref.coord, true
}

// SectionAt returns the section at c.
func (s *Schema) SectionAt(c Coordinate) (Section, bool) {
	p, ok := s.PhaseAt(c.Phase)
	if !ok || c.Section < 0 || c.Section >= len(p.Sections) {
		return Section{}, false
	}
	return p.Sections[c.Section], true
}

// Field returns the first declaration of key. Reused keys share one type.
func (s *Schema) Field(key string) (Field, bool) {
	f, ok := s.fields[key]
	return f, ok
}

// FieldTypes resolves field keys to declared types for answer decoding.
func (s *Schema) FieldTypes() models.FieldTypeLookup {
	return func(key string) (models.FieldType, bool) {
		t, ok := s.fieldTypes[key]
		return t, ok
	}
}

// PhaseCompleted reports the derived completion flag of the 1-based phase.
func (s *Schema) PhaseCompleted(phase int, completed map[string]bool) bool {
	p, ok := s.PhaseAt(phase)
	return ok && p.IsCompleted(completed)
}

// TotalSteps is the number of sections across all phases.
func (s *Schema) TotalSteps() int {
	return len(s.sections)
}

// StepOf returns the 1-based linear step of a section, counting sections
// across phases in order.
func (s *Schema) StepOf(sectionKey string) (int, bool) {
	ref, ok := s.sections[sectionKey]
	return ref.step, ok
}

// Coordinate walks the real per-phase section counts to place a 1-based
// linear step. ok is false when step is outside the schema.
func (s *Schema) Coordinate(step int) (Coordinate, bool) {
	if step < 1 {
		return Coordinate{}, false
	}
	remaining := step - 1
	for i, p := range s.Phases {
		if remaining < len(p.Sections) {
			return Coordinate{Phase: i + 1, Section: remaining}, true
		}
		remaining -= len(p.Sections)
	}
	return Coordinate{}, false
}

// SectionKeyAt returns the key of the section at a 1-based linear step.
func (s *Schema) SectionKeyAt(step int) (string, bool) {
	c, ok := s.Coordinate(step)
	if !ok {
		return "", false
	}
	return s.Phases[c.Phase-1].Sections[c.Section].Key, true
}

// Normalize clamps a position to the nearest valid one.
func (s *Schema) Normalize(phase, section int) Coordinate {
	if len(s.Phases) == 0 {
		return s.Landing()
	}
	phase = min(max(phase, 1), len(s.Phases))
	n := len(s.Phases[phase-1].Sections)
	if n == 0 {
		return Coordinate{Phase: phase}
	}
	section = min(max(section, 0), n-1)
	return Coordinate{Phase: phase, Section: section}
}

// Landing is where unknown references are redirected.
func (s *Schema) Landing() Coordinate {
	return Coordinate{Phase: models.DefaultPhase, Section: models.DefaultSection}
}

// LandingSlug is the slug of the landing phase.
func (s *Schema) LandingSlug() string {
	if len(s.Phases) == 0 {
		return ""
	}
	return s.Phases[0].Slug
}

// VisibleFields returns the section's fields whose condition, if any, is met
// by answers. Order is preserved.
func VisibleFields(section Section, answers models.AnswerSet) []Field {
	out := make([]Field, 0, len(section.Fields))
	for _, f := range section.Fields {
		if f.Condition == nil || f.Condition.matches(answers) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Condition) matches(answers models.AnswerSet) bool {
	for _, got := range conditionValues(answers[c.Field]) {
		for _, want := range c.Values {
			if got == want {
				return true
			}
		}
	}
	return false
}

func conditionValues(v models.Value) []string {
	if raw, ok := v.(models.Raw); ok {
		if b, ok := raw.V.(bool); ok {
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
	}
	return models.Selections(v)
}
