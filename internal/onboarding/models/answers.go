package models

import (
	"encoding/json"
	"fmt"
)

// AnswerSet maps field keys to answers (the wizard's formData).
type AnswerSet map[string]Value

// Clone returns a shallow copy; values are immutable by convention.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a copy of a with partial shallow-merged on top.
func (a AnswerSet) Merge(partial AnswerSet) AnswerSet {
	out := a.Clone()
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Only returns the subset of a whose keys are listed.
func (a AnswerSet) Only(keys []string) AnswerSet {
	out := make(AnswerSet, len(keys))
	for _, k := range keys {
		if v, ok := a[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Resolve re-decodes Raw answers whose key the lookup knows, so values that
// arrived untyped (pass-through keys of a backend payload) get their declared
// variant.
func (a AnswerSet) Resolve(lookup FieldTypeLookup) AnswerSet {
	out := a.Clone()
	if lookup == nil {
		return out
	}
	for k, v := range a {
		raw, ok := v.(Raw)
		if !ok {
			continue
		}
		if t, ok := lookup(k); ok {
			out[k] = ValueOf(t, raw.V)
		}
	}
	return out
}

// FieldTypeLookup resolves a field key to its declared type.
type FieldTypeLookup func(key string) (FieldType, bool)

// DecodeAnswers decodes a JSON object of UI-shaped answers. Keys the lookup
// knows are decoded by their declared type; unknown keys are kept as Raw.
// Decoding never fails per value: a shape that does not fit its type is kept
// as Raw so it passes through untouched.
func DecodeAnswers(data []byte, lookup FieldTypeLookup) (AnswerSet, error) {
	if len(data) == 0 || string(data) == "null" {
		return AnswerSet{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return AnswersFromMap(raw, lookup), nil
}

// AnswersFromMap is DecodeAnswers over an already-decoded JSON object.
func AnswersFromMap(raw map[string]any, lookup FieldTypeLookup) AnswerSet {
	out := make(AnswerSet, len(raw))
	for key, v := range raw {
		if lookup != nil {
			if t, ok := lookup(key); ok {
				out[key] = ValueOf(t, v)
				continue
			}
		}
		out[key] = Raw{V: v}
	}
	return out
}

// ValueOf converts a generic JSON value into the variant declared by t.
func ValueOf(t FieldType, v any) Value {
	switch t {
	case FieldShortText:
		if s, ok := v.(string); ok {
			return Text(s)
		}
	case FieldLongText:
		switch val := v.(type) {
		case string:
			return Text(val)
		case map[string]any:
			if ta, ok := textAttachmentsOf(val); ok {
				return ta
			}
		}
	case FieldSingleSelect:
		switch val := v.(type) {
		case string:
			return Text(val)
		case []any:
			if list, ok := stringsOf(val); ok {
				return List(list)
			}
		}
	case FieldChoiceWithOther:
		switch val := v.(type) {
		case string:
			return Choice{SelectedValue: val}
		case map[string]any:
			sel, _ := val["selectedValue"].(string)
			other, _ := val["otherValue"].(string)
			return Choice{SelectedValue: sel, OtherValue: other}
		}
	case FieldFile:
		if v == nil {
			return File{}
		}
		if m, ok := v.(map[string]any); ok {
			return fileOf(m)
		}
	case FieldMultiFile:
		if items, ok := v.([]any); ok {
			return filesOf(items)
		}
	case FieldMultiText:
		if m, ok := v.(map[string]any); ok {
			out := make(MultiText, len(m))
			for k, item := range m {
				if s, ok := item.(string); ok {
					out[k] = s
				}
			}
			return out
		}
	case FieldComposite:
		switch v.(type) {
		case map[string]any, []any:
			return Composite{V: v}
		}
	}
	return Raw{V: v}
}

// FileRefOf decodes a generic JSON object into a FileRef.
func FileRefOf(m map[string]any) *FileRef {
	ref := &FileRef{}
	ref.ID = stringOf(m["id"])
	ref.Name = stringOf(m["name"])
	if ref.Name == "" {
		ref.Name = stringOf(m["original_filename"])
	}
	ref.URL = stringOf(m["url"])
	ref.MimeType = stringOf(m["type"])
	switch size := m["size"].(type) {
	case float64:
		ref.Size = int64(size)
	case int64:
		ref.Size = size
	case int:
		ref.Size = int64(size)
	case json.Number:
		ref.Size, _ = size.Int64()
	}
	return ref
}

func fileOf(m map[string]any) File {
	if nested, ok := m["file"]; ok {
		out := File{Meta: map[string]string{}}
		if nm, ok := nested.(map[string]any); ok {
			out.Ref = FileRefOf(nm)
		}
		for k, v := range m {
			if k == "file" {
				continue
			}
			if s, ok := v.(string); ok {
				out.Meta[k] = s
			}
		}
		if len(out.Meta) == 0 {
			out.Meta = nil
		}
		return out
	}
	ref := FileRefOf(m)
	if ref.IsReal() {
		return File{Ref: ref}
	}
	meta := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	return File{Meta: meta}
}

func filesOf(items []any) Files {
	out := make(Files, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := fileOf(m)
		if f.Ref.IsReal() {
			out = append(out, *f.Ref)
		}
	}
	return out
}

func textAttachmentsOf(m map[string]any) (TextAttachments, bool) {
	text, ok := m["text"].(string)
	if !ok {
		return TextAttachments{}, false
	}
	out := TextAttachments{Text: text}
	if items, ok := m["files"].([]any); ok {
		out.Files = filesOf(items)
	}
	return out, true
}

func stringsOf(items []any) ([]string, bool) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
