package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/reference"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// OptionsFromCountries expands a field's options from the country table.
const OptionsFromCountries = "countries"

type document struct {
	Role   string        `yaml:"role"`
	Phases []phaseSource `yaml:"phases"`
}

type phaseSource struct {
	Key         string          `yaml:"key"`
	Slug        string          `yaml:"slug"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Table       string          `yaml:"table"`
	Sections    []sectionSource `yaml:"sections"`
}

type sectionSource struct {
	Key         string           `yaml:"key"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Congrats    *CongratsMessage `yaml:"congrats"`
	Fields      []fieldSource    `yaml:"fields"`
}

type fieldSource struct {
	Key         string           `yaml:"key"`
	Label       string           `yaml:"label"`
	Type        string           `yaml:"type"`
	Placeholder string           `yaml:"placeholder"`
	HelpText    string           `yaml:"help_text"`
	Options     []Option         `yaml:"options"`
	OptionsFrom string           `yaml:"options_from"`
	Validation  validationSource `yaml:"validation"`
	Condition   *conditionSource `yaml:"condition"`
}

type validationSource struct {
	Required         bool     `yaml:"required"`
	MinLength        int      `yaml:"min_length"`
	MaxLength        int      `yaml:"max_length"`
	Pattern          string   `yaml:"pattern"`
	AllowedFileTypes []string `yaml:"allowed_file_types"`
	MaxFiles         int      `yaml:"max_files"`
	MaxFileSize      int64    `yaml:"max_file_size"`
}

type conditionSource struct {
	Field  string   `yaml:"field"`
	Values []string `yaml:"values"`
}

// ErrInvalidSchema wraps every structural problem found while loading.
var ErrInvalidSchema = errors.New("invalid schema")

// Load decodes and checks one YAML schema definition. Unknown YAML keys are
// rejected.
func Load(data []byte) (*Schema, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidSchema)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return build(doc)
}

// LoadEmbedded loads the built-in definition for role.
func LoadEmbedded(role models.Role) (*Schema, error) {
	data, err := definitions.ReadFile("definitions/" + string(role) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read %s schema: %w", role, err)
	}
	s, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s schema: %w", role, err)
	}
	if s.Role != role {
		return nil, fmt.Errorf("%w: %s definition declares role %q", ErrInvalidSchema, role, s.Role)
	}
	return s, nil
}

func build(doc document) (*Schema, error) {
	role, err := models.ParseRole(doc.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if len(doc.Phases) == 0 {
		return nil, fmt.Errorf("%w: no phases", ErrInvalidSchema)
	}

	s := &Schema{
		Role:       role,
		fieldTypes: map[string]models.FieldType{},
		fields:     map[string]Field{},
		sections:   map[string]sectionRef{},
	}
	phaseKeys := map[string]bool{}
	slugs := map[string]bool{}
	step := 0

	for pi, ps := range doc.Phases {
		if ps.Key == "" || ps.Slug == "" {
			return nil, fmt.Errorf("%w: phase %d needs a key and slug", ErrInvalidSchema, pi+1)
		}
		if _, dup := s.sections[ps.Key]; dup || phaseKeys[ps.Key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, ps.Key)
		}
		if slugs[ps.Slug] {
			return nil, fmt.Errorf("%w: duplicate slug %q", ErrInvalidSchema, ps.Slug)
		}
		if ps.Table == "" {
			return nil, fmt.Errorf("%w: phase %q has no mapping table", ErrInvalidSchema, ps.Key)
		}
		phaseKeys[ps.Key] = true
		slugs[ps.Slug] = true

		phase := Phase{
			Key:         ps.Key,
			Slug:        ps.Slug,
			Title:       ps.Title,
			Description: ps.Description,
			Table:       ps.Table,
			Sections:    make([]Section, 0, len(ps.Sections)),
		}
		for si, ss := range ps.Sections {
			if ss.Key == "" {
				return nil, fmt.Errorf("%w: phase %q section %d has no key", ErrInvalidSchema, ps.Key, si)
			}
			if _, dup := s.sections[ss.Key]; dup || phaseKeys[ss.Key] {
				return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, ss.Key)
			}
			section, err := s.buildSection(ss)
			if err != nil {
				return nil, err
			}
			step++
			s.sections[ss.Key] = sectionRef{coord: Coordinate{Phase: pi + 1, Section: si}, step: step}
			phase.Sections = append(phase.Sections, section)
		}
		s.Phases = append(s.Phases, phase)
	}

	for _, p := range s.Phases {
		for _, sec := range p.Sections {
			for _, f := range sec.Fields {
				if f.Condition == nil {
					continue
				}
				if _, ok := s.fieldTypes[f.Condition.Field]; !ok {
					return nil, fmt.Errorf("%w: field %q depends on unknown field %q", ErrInvalidSchema, f.Key, f.Condition.Field)
				}
			}
		}
	}
	return s, nil
}

func (s *Schema) buildSection(ss sectionSource) (Section, error) {
	section := Section{
		Key:         ss.Key,
		Title:       ss.Title,
		Description: ss.Description,
		Congrats:    ss.Congrats,
		Fields:      make([]Field, 0, len(ss.Fields)),
	}
	seen := map[string]bool{}
	for _, fs := range ss.Fields {
		if fs.Key == "" {
			return Section{}, fmt.Errorf("%w: section %q has a field without key", ErrInvalidSchema, ss.Key)
		}
		if seen[fs.Key] {
			return Section{}, fmt.Errorf("%w: duplicate field %q in section %q", ErrInvalidSchema, fs.Key, ss.Key)
		}
		seen[fs.Key] = true

		f, err := buildField(fs)
		if err != nil {
			return Section{}, fmt.Errorf("section %q: %w", ss.Key, err)
		}
		if prev, ok := s.fieldTypes[f.Key]; ok && prev != f.Type {
			return Section{}, fmt.Errorf("%w: field %q reused as %s, declared earlier as %s", ErrInvalidSchema, f.Key, f.Type, prev)
		}
		if _, ok := s.fields[f.Key]; !ok {
			s.fields[f.Key] = f
		}
		s.fieldTypes[f.Key] = f.Type
		section.Fields = append(section.Fields, f)
	}
	return section, nil
}

func buildField(fs fieldSource) (Field, error) {
	t := models.FieldType(fs.Type)
	if !t.IsValid() {
		return Field{}, fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidSchema, fs.Key, fs.Type)
	}
	f := Field{
		Key:         fs.Key,
		Label:       fs.Label,
		Type:        t,
		Placeholder: fs.Placeholder,
		HelpText:    fs.HelpText,
		Options:     fs.Options,
		Validation: Validation{
			Required:         fs.Validation.Required,
			MinLength:        fs.Validation.MinLength,
			MaxLength:        fs.Validation.MaxLength,
			Pattern:          fs.Validation.Pattern,
			AllowedFileTypes: fs.Validation.AllowedFileTypes,
			MaxFiles:         fs.Validation.MaxFiles,
			MaxFileSize:      fs.Validation.MaxFileSize,
		},
	}
	switch fs.OptionsFrom {
	case "":
	case OptionsFromCountries:
		for _, c := range reference.Countries() {
			f.Options = append(f.Options, Option{Label: c.Name, Value: c.Code})
		}
	default:
		return Field{}, fmt.Errorf("%w: field %q has unknown options source %q", ErrInvalidSchema, fs.Key, fs.OptionsFrom)
	}
	if t.HasOptions() && len(f.Options) == 0 {
		return Field{}, fmt.Errorf("%w: field %q of type %s needs options", ErrInvalidSchema, fs.Key, t)
	}
	if f.Validation.Pattern != "" {
		re, err := regexp.Compile(f.Validation.Pattern)
		if err != nil {
			return Field{}, fmt.Errorf("%w: field %q pattern: %v", ErrInvalidSchema, fs.Key, err)
		}
		f.Validation.pattern = re
	}
	if fs.Condition != nil {
		if fs.Condition.Field == "" || len(fs.Condition.Values) == 0 {
			return Field{}, fmt.Errorf("%w: field %q has an incomplete condition", ErrInvalidSchema, fs.Key)
		}
		f.Condition = &Condition{Field: fs.Condition.Field, Values: fs.Condition.Values}
	}
	return f, nil
}
