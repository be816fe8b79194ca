// Package transform converts wizard answers into remote API payloads and back,
// driven by a fieldmap.Table. Both directions are pure and total: malformed
// input degrades to pass-through, never to an error.
package transform

import (
	"slices"
	"strings"

	"keystone/internal/onboarding/fieldmap"
	"keystone/internal/onboarding/models"
)

// Warning reports a critical backend path that is still blank after
// transformation. Warnings are advisory; the payload is still submitted.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of ToAPIShape.
type Result struct {
	Payload  models.Payload
	Warnings []Warning
}

// ToAPIShape translates answers through table. Unmapped keys are copied
// verbatim, required backend paths are back-filled with "", and identity
// fills the table's identity path when blank.
func ToAPIShape(answers models.AnswerSet, table *fieldmap.Table, identity string) Result {
	payload := models.Payload{}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if _, mapped := table.ByFrontend(key); !mapped {
			payload[key] = models.Plain(answers[key])
		}
	}
	for _, key := range keys {
		entry, mapped := table.ByFrontend(key)
		if !mapped {
			continue
		}
		value, keep := encode(entry.Kind, answers[key])
		if !keep {
			continue
		}
		set(payload, entry.Backend, value)
		for _, dup := range entry.Duplicates {
			set(payload, dup, value)
		}
	}

	if p, ok := table.IdentityPath(); ok && identity != "" {
		if current, _ := get(payload, p); blank(current) {
			set(payload, p, identity)
		}
	}
	for _, p := range table.Required() {
		if _, ok := get(payload, p); !ok {
			set(payload, p, "")
		}
	}

	var warnings []Warning
	for _, p := range table.Critical() {
		if v, _ := get(payload, p); blank(v) {
			warnings = append(warnings, Warning{Path: p.String(), Message: "critical field is empty"})
		}
	}
	return Result{Payload: payload, Warnings: warnings}
}

// encode applies the entry's encoding. keep is false when the value must not
// be forwarded at all.
func encode(kind fieldmap.Kind, v models.Value) (any, bool) {
	switch kind {
	case fieldmap.KindArray:
		return encodeArray(v), true
	case fieldmap.KindChoice:
		return encodeChoice(v), true
	case fieldmap.KindTextAttachments:
		return encodeTextAttachments(v), true
	case fieldmap.KindAddress:
		return encodeAddress(v), true
	case fieldmap.KindFile:
		return encodeFile(v)
	case fieldmap.KindBoolean:
		return Truthy(v), true
	default:
		return models.Plain(v), true
	}
}

func encodeArray(v models.Value) any {
	switch val := v.(type) {
	case models.Text:
		if string(val) == "" {
			return []any{}
		}
		return []any{string(val)}
	case models.Raw:
		if s, ok := val.V.(string); ok {
			return []any{s}
		}
	}
	return models.Plain(v)
}

func encodeChoice(v models.Value) any {
	switch val := v.(type) {
	case models.Choice:
		if val.SelectedValue == models.OtherValue && strings.TrimSpace(val.OtherValue) != "" {
			return map[string]any{"type": val.SelectedValue, "custom": val.OtherValue}
		}
		return map[string]any{"type": val.SelectedValue}
	case models.Text:
		return map[string]any{"type": string(val)}
	}
	return models.Plain(v)
}

func encodeTextAttachments(v models.Value) any {
	if ta, ok := v.(models.TextAttachments); ok && len(ta.Files) == 0 {
		return ta.Text
	}
	return models.Plain(v)
}

func encodeAddress(v models.Value) any {
	plain := models.Plain(v)
	if m, ok := plain.(map[string]any); ok {
		if addr, ok := m["address"].(string); ok && strings.TrimSpace(addr) != "" {
			return addr
		}
	}
	return plain
}

func encodeFile(v models.Value) (any, bool) {
	switch val := v.(type) {
	case models.File:
		if !val.Ref.IsReal() {
			return nil, false
		}
		return models.PlainRef(*val.Ref), true
	case models.Raw:
		if val.V == nil {
			return nil, false
		}
	}
	return models.Plain(v), true
}

// Truthy coerces an answer to a boolean. Text is true unless it is empty or
// one of "false", "no", "0", "off".
func Truthy(v models.Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case models.Text:
		return truthyString(string(val))
	case models.Choice:
		return truthyString(val.SelectedValue)
	case models.Raw:
		switch raw := val.V.(type) {
		case bool:
			return raw
		case string:
			return truthyString(raw)
		case float64:
			return raw != 0
		case nil:
			return false
		}
		return true
	default:
		return !models.IsBlank(v)
	}
}

func truthyString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "0", "off":
		return false
	}
	return true
}

func set(payload models.Payload, p fieldmap.Path, v any) {
	if !p.IsNested() {
		payload[p.Parent] = v
		return
	}
	parent, ok := payload[p.Parent].(map[string]any)
	if !ok {
		parent = map[string]any{}
		payload[p.Parent] = parent
	}
	parent[p.Child] = v
}

func get(payload models.Payload, p fieldmap.Path) (any, bool) {
	v, ok := payload[p.Parent]
	if !ok || !p.IsNested() {
		return v, ok
	}
	parent, isMap := v.(map[string]any)
	if !isMap {
		return nil, false
	}
	child, ok := parent[p.Child]
	return child, ok
}

func blank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
