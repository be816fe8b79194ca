package models

import (
	"slices"
	"sort"
	"strings"
)

// FieldErrors maps a field key to its validation messages.
type FieldErrors map[string][]string

// Add appends msg to key's messages.
func (f FieldErrors) Add(key, msg string) {
	f[key] = append(f[key], msg)
}

// Keys returns the offending field keys in sorted order.
func (f FieldErrors) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidationError reports field-level failures, local or remote.
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields.Keys(), ", ")
}

// FieldErrors exposes the field map to transports.
func (e *ValidationError) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for k, v := range e.Fields {
		out[k] = slices.Clone(v)
	}
	return out
}
