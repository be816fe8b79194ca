package models

import (
	"encoding/json"
	"strings"
)

// OtherValue is the selectedValue that unlocks the free-text "other" answer.
const OtherValue = "other"

// ValueKind tags the concrete variant held by a Value.
type ValueKind string

const (
	KindText            ValueKind = "text"
	KindChoice          ValueKind = "choice"
	KindFile            ValueKind = "file"
	KindFiles           ValueKind = "files"
	KindMultiText       ValueKind = "multi_text"
	KindComposite       ValueKind = "composite"
	KindTextAttachments ValueKind = "text_attachments"
	KindList            ValueKind = "list"
	KindRaw             ValueKind = "raw"
)

// Value is one answer. The set of implementations is closed: Text, Choice,
// File, Files, MultiText, Composite, TextAttachments, List and Raw.
type Value interface {
	Kind() ValueKind
	isValue()
}

// Text answers short-text, long-text and single-select fields.
type Text string

// Choice answers single-choice-with-other fields.
type Choice struct {
	SelectedValue string `json:"selectedValue"`
	OtherValue    string `json:"otherValue"`
}

// FileRef points at an uploaded document.
type FileRef struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"type,omitempty"`
}

// IsReal reports whether the reference identifies stored content.
func (r *FileRef) IsReal() bool {
	return r != nil && (r.ID != "" || r.URL != "")
}

// File answers a single-file field. A nil Ref with Meta is a metadata-only
// placeholder (document name, category) picked before the upload finished.
type File struct {
	Ref  *FileRef
	Meta map[string]string
}

// Files answers multi-file fields.
type Files []FileRef

// MultiText answers multi-text fields keyed by sub-key (e.g. social handles).
type MultiText map[string]string

// Composite answers custom-composite fields. V is an opaque JSON structure
// (an address record, a list of project records).
type Composite struct {
	V any
}

// TextAttachments is a long-text answer with supporting files.
type TextAttachments struct {
	Text  string    `json:"text"`
	Files []FileRef `json:"files,omitempty"`
}

// List answers an array-valued select already submitted as a list.
type List []string

// Raw holds a value the engine does not interpret.
type Raw struct {
	V any
}

func (Text) Kind() ValueKind            { return KindText }
func (Choice) Kind() ValueKind          { return KindChoice }
func (File) Kind() ValueKind            { return KindFile }
func (Files) Kind() ValueKind           { return KindFiles }
func (MultiText) Kind() ValueKind       { return KindMultiText }
func (Composite) Kind() ValueKind       { return KindComposite }
func (TextAttachments) Kind() ValueKind { return KindTextAttachments }
func (List) Kind() ValueKind            { return KindList }
func (Raw) Kind() ValueKind             { return KindRaw }

func (Text) isValue()            {}
func (Choice) isValue()          {}
func (File) isValue()            {}
func (Files) isValue()           {}
func (MultiText) isValue()       {}
func (Composite) isValue()       {}
func (TextAttachments) isValue() {}
func (List) isValue()            {}
func (Raw) isValue()             {}

// MarshalJSON emits the UI shape: the bare reference, a {file, ...meta}
// wrapper when metadata is present, or null.
func (f File) MarshalJSON() ([]byte, error) {
	if len(f.Meta) == 0 {
		if f.Ref == nil {
			return []byte("null"), nil
		}
		return json.Marshal(f.Ref)
	}
	out := make(map[string]any, len(f.Meta)+1)
	for k, v := range f.Meta {
		out[k] = v
	}
	out["file"] = f.Ref
	return json.Marshal(out)
}

func (c Composite) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.V)
}

func (r Raw) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.V)
}

// IsBlank reports whether v carries no user-provided content.
func IsBlank(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case Text:
		return strings.TrimSpace(string(val)) == ""
	case Choice:
		return strings.TrimSpace(val.SelectedValue) == ""
	case File:
		return !val.Ref.IsReal()
	case Files:
		return len(val) == 0
	case MultiText:
		for _, s := range val {
			if strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	case Composite:
		return isBlankAny(val.V)
	case TextAttachments:
		return strings.TrimSpace(val.Text) == "" && len(val.Files) == 0
	case List:
		return len(val) == 0
	case Raw:
		return isBlankAny(val.V)
	default:
		return true
	}
}

func isBlankAny(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// TextOf returns the textual content of text-like values, used by length and
// pattern validation. ok is false for non-textual variants.
func TextOf(v Value) (string, bool) {
	switch val := v.(type) {
	case Text:
		return string(val), true
	case TextAttachments:
		return val.Text, true
	case Choice:
		if val.SelectedValue == OtherValue {
			return val.OtherValue, true
		}
		return val.SelectedValue, true
	case Raw:
		s, ok := val.V.(string)
		return s, ok
	default:
		return "", false
	}
}

// Selections returns the option values a select-like value picked.
func Selections(v Value) []string {
	switch val := v.(type) {
	case Text:
		if val == "" {
			return nil
		}
		return []string{string(val)}
	case List:
		return []string(val)
	case Choice:
		if val.SelectedValue == "" {
			return nil
		}
		return []string{val.SelectedValue}
	case Raw:
		if s, ok := val.V.(string); ok && s != "" {
			return []string{s}
		}
	}
	return nil
}

// FileRefs returns the real file references a file-like value holds.
func FileRefs(v Value) []FileRef {
	switch val := v.(type) {
	case File:
		if val.Ref.IsReal() {
			return []FileRef{*val.Ref}
		}
	case Files:
		return []FileRef(val)
	case TextAttachments:
		return val.Files
	}
	return nil
}

// WithoutFile returns v minus the file reference with the given id, and
// whether anything was removed. A single-file answer keeps its metadata.
func WithoutFile(v Value, id string) (Value, bool) {
	drop := func(refs []FileRef) ([]FileRef, bool) {
		kept := make([]FileRef, 0, len(refs))
		for _, r := range refs {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept, len(kept) != len(refs)
	}
	switch val := v.(type) {
	case File:
		if val.Ref != nil && val.Ref.ID == id {
			return File{Meta: val.Meta}, true
		}
	case Files:
		if kept, ok := drop(val); ok {
			return Files(kept), true
		}
	case TextAttachments:
		if kept, ok := drop(val.Files); ok {
			return TextAttachments{Text: val.Text, Files: kept}, true
		}
	}
	return v, false
}

// Plain converts v into its generic JSON structure (maps, slices, strings),
// the same shape MarshalJSON produces.
func Plain(v Value) any {
	switch val := v.(type) {
	case nil:
		return nil
	case Text:
		return string(val)
	case Choice:
		return map[string]any{"selectedValue": val.SelectedValue, "otherValue": val.OtherValue}
	case File:
		if len(val.Meta) == 0 {
			if val.Ref == nil {
				return nil
			}
			return PlainRef(*val.Ref)
		}
		out := make(map[string]any, len(val.Meta)+1)
		for k, m := range val.Meta {
			out[k] = m
		}
		if val.Ref != nil {
			out["file"] = PlainRef(*val.Ref)
		} else {
			out["file"] = nil
		}
		return out
	case Files:
		return plainRefs(val)
	case MultiText:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case Composite:
		return val.V
	case TextAttachments:
		return map[string]any{"text": val.Text, "files": plainRefs(val.Files)}
	case List:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case Raw:
		return val.V
	default:
		return nil
	}
}

// PlainRef converts a file reference into a generic map, omitting empty
// attributes.
func PlainRef(r FileRef) map[string]any {
	out := map[string]any{}
	if r.ID != "" {
		out["id"] = r.ID
	}
	if r.Name != "" {
		out["name"] = r.Name
	}
	if r.URL != "" {
		out["url"] = r.URL
	}
	if r.Size > 0 {
		out["size"] = r.Size
	}
	if r.MimeType != "" {
		out["type"] = r.MimeType
	}
	return out
}

func plainRefs(refs []FileRef) []any {
	out := make([]any, len(refs))
	for i, r := range refs {
		out[i] = PlainRef(r)
	}
	return out
}
