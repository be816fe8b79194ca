// Package fieldmap declares the static translation tables between wizard
// field keys and the remote API's payload keys.
package fieldmap

import (
	"fmt"

	dErrors "keystone/pkg/domain-errors"
)

// Table names referenced by schema phases.
const (
	TableBusinessInformation   = "business-information"
	TableCompanyRepresentative = "company-representative"
)

// Path is a backend key of one or two segments.
type Path struct {
	Parent string
	Child  string
}

// Key is a top-level backend key.
func Key(name string) Path {
	return Path{Parent: name}
}

// Nested is a backend key one level below parent.
func Nested(parent, child string) Path {
	return Path{Parent: parent, Child: child}
}

// IsNested reports whether the path has two segments.
func (p Path) IsNested() bool {
	return p.Child != ""
}

func (p Path) String() string {
	if p.IsNested() {
		return p.Parent + "." + p.Child
	}
	return p.Parent
}

// Kind selects the encoding applied to a mapped value.
type Kind string

const (
	KindPlain           Kind = "plain"
	KindArray           Kind = "array"
	KindChoice          Kind = "choice"
	KindTextAttachments Kind = "text-attachments"
	KindAddress         Kind = "address"
	KindFile            Kind = "file"
	KindFiles           Kind = "files"
	KindMultiText       Kind = "multi-text"
	KindComposite       Kind = "composite"
	KindBoolean         Kind = "boolean"
)

// Entry maps one wizard field onto the backend payload. Duplicates receive
// the same encoded value as Backend.
type Entry struct {
	FrontendKey string
	Backend     Path
	Kind        Kind
	Duplicates  []Path
}

// Table is an immutable set of entries plus the backend contract lists.
type Table struct {
	name       string
	entries    []Entry
	byFrontend map[string]int
	byBackend  map[Path]int
	duplicate  map[Path]bool
	parents    map[string]bool
	required   []Path
	critical   []Path
	identity   *Path
}

type tableSpec struct {
	name     string
	entries  []Entry
	required []Path
	critical []Path
	identity *Path
}

func newTable(spec tableSpec) *Table {
	t := &Table{
		name:       spec.name,
		entries:    spec.entries,
		byFrontend: make(map[string]int, len(spec.entries)),
		byBackend:  make(map[Path]int, len(spec.entries)),
		duplicate:  map[Path]bool{},
		parents:    map[string]bool{},
		required:   spec.required,
		critical:   spec.critical,
		identity:   spec.identity,
	}
	for i, e := range spec.entries {
		if _, dup := t.byFrontend[e.FrontendKey]; dup {
			panic(fmt.Sprintf("fieldmap %s: frontend key %q mapped twice", spec.name, e.FrontendKey))
		}
		if _, dup := t.byBackend[e.Backend]; dup {
			panic(fmt.Sprintf("fieldmap %s: backend path %s mapped twice", spec.name, e.Backend))
		}
		t.byFrontend[e.FrontendKey] = i
		t.byBackend[e.Backend] = i
		if e.Backend.IsNested() {
			t.parents[e.Backend.Parent] = true
		}
		for _, d := range e.Duplicates {
			t.duplicate[d] = true
			if d.IsNested() {
				t.parents[d.Parent] = true
			}
		}
	}
	return t
}

// Name identifies the table.
func (t *Table) Name() string { return t.name }

// Entries returns the entries in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// ByFrontend finds the entry for a wizard field key.
func (t *Table) ByFrontend(key string) (Entry, bool) {
	i, ok := t.byFrontend[key]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// ByBackend finds the entry owning a backend path.
func (t *Table) ByBackend(p Path) (Entry, bool) {
	i, ok := t.byBackend[p]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// IsDuplicateOnly reports whether p exists only as a copy of another entry.
func (t *Table) IsDuplicateOnly(p Path) bool {
	_, owned := t.byBackend[p]
	return t.duplicate[p] && !owned
}

// IsReserved reports whether a top-level backend key belongs to the table,
// either as a mapped key, a nesting parent or a duplicate.
func (t *Table) IsReserved(key string) bool {
	if t.parents[key] {
		return true
	}
	_, owned := t.byBackend[Key(key)]
	return owned || t.duplicate[Key(key)]
}

// Required lists paths the remote API always expects, back-filled when absent.
func (t *Table) Required() []Path { return append([]Path(nil), t.required...) }

// Critical lists the subset of paths reported when still blank.
func (t *Table) Critical() []Path { return append([]Path(nil), t.critical...) }

// IdentityPath is filled with the submitting identity when blank.
func (t *Table) IdentityPath() (Path, bool) {
	if t.identity == nil {
		return Path{}, false
	}
	return *t.identity, true
}

// ByName resolves a table referenced by a schema phase.
func ByName(name string) (*Table, error) {
	switch name {
	case TableBusinessInformation:
		return BusinessInformation(), nil
	case TableCompanyRepresentative:
		return CompanyRepresentative(), nil
	default:
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown field mapping table %q", name))
	}
}
