package transform

import (
	"keystone/internal/onboarding/fieldmap"
	"keystone/internal/onboarding/models"
)

// FromAPIShape reverses ToAPIShape. Unmapped top-level keys pass through as
// Raw answers; duplicate-only keys such as sort_code are not surfaced.
func FromAPIShape(payload models.Payload, table *fieldmap.Table) models.AnswerSet {
	answers := models.AnswerSet{}
	for _, entry := range table.Entries() {
		raw, ok := get(payload, entry.Backend)
		if !ok {
			continue
		}
		answers[entry.FrontendKey] = decode(entry.Kind, raw)
	}
	for key, raw := range payload {
		if _, taken := answers[key]; taken || table.IsReserved(key) {
			continue
		}
		answers[key] = models.Raw{V: raw}
	}
	return answers
}

func decode(kind fieldmap.Kind, raw any) models.Value {
	switch kind {
	case fieldmap.KindChoice:
		return decodeChoice(raw)
	case fieldmap.KindTextAttachments:
		return models.ValueOf(models.FieldLongText, raw)
	case fieldmap.KindArray:
		return decodeArray(raw)
	case fieldmap.KindAddress:
		if s, ok := raw.(string); ok {
			return models.Composite{V: map[string]any{"address": s}}
		}
		return models.ValueOf(models.FieldComposite, raw)
	case fieldmap.KindFile:
		return models.ValueOf(models.FieldFile, raw)
	case fieldmap.KindFiles:
		return models.ValueOf(models.FieldMultiFile, raw)
	case fieldmap.KindMultiText:
		return models.ValueOf(models.FieldMultiText, raw)
	case fieldmap.KindComposite:
		return models.ValueOf(models.FieldComposite, raw)
	case fieldmap.KindBoolean:
		switch val := raw.(type) {
		case bool:
			if val {
				return models.Text("yes")
			}
			return models.Text("no")
		case string:
			return models.Text(val)
		}
		return models.Raw{V: raw}
	default:
		if s, ok := raw.(string); ok {
			return models.Text(s)
		}
		return models.Raw{V: raw}
	}
}

func decodeChoice(raw any) models.Value {
	switch val := raw.(type) {
	case map[string]any:
		typ, ok := val["type"].(string)
		if !ok {
			return models.Raw{V: raw}
		}
		custom, _ := val["custom"].(string)
		return models.Choice{SelectedValue: typ, OtherValue: custom}
	case string:
		return models.Choice{SelectedValue: val}
	}
	return models.Raw{V: raw}
}

func decodeArray(raw any) models.Value {
	switch val := raw.(type) {
	case string:
		return models.Text(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return models.Raw{V: raw}
			}
			items = append(items, s)
		}
		if len(items) == 1 {
			return models.Text(items[0])
		}
		return models.List(items)
	case []string:
		if len(val) == 1 {
			return models.Text(val[0])
		}
		return models.List(val)
	}
	return models.Raw{V: raw}
}
