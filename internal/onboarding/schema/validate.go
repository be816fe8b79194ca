package schema

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"keystone/internal/onboarding/models"
)

// Validate evaluates the validation rules of the section's visible fields.
// Hidden fields are never reported. The result is empty when answers pass.
func Validate(section Section, answers models.AnswerSet) models.FieldErrors {
	errs := models.FieldErrors{}
	for _, f := range VisibleFields(section, answers) {
		for _, msg := range f.check(answers[f.Key]) {
			errs.Add(f.Key, msg)
		}
	}
	return errs
}

func (f Field) check(v models.Value) []string {
	if models.IsBlank(v) {
		if f.Validation.Required {
			return []string{"is required"}
		}
		return nil
	}

	var msgs []string
	if text, ok := models.TextOf(v); ok {
		msgs = append(msgs, f.checkText(text)...)
	}
	if f.Type.HasOptions() {
		msgs = append(msgs, f.checkOptions(v)...)
	}
	if f.Type.IsFile() || f.Type == models.FieldLongText {
		refs := models.FileRefs(v)
		if f.Validation.MaxFiles > 0 && len(refs) > f.Validation.MaxFiles {
			msgs = append(msgs, fmt.Sprintf("accepts at most %d files", f.Validation.MaxFiles))
		}
		for _, ref := range refs {
			msgs = append(msgs, f.CheckFile(ref.Name, ref.Size)...)
		}
	}
	return msgs
}

func (f Field) checkText(text string) []string {
	var msgs []string
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if f.Validation.MinLength > 0 && n < f.Validation.MinLength {
		msgs = append(msgs, fmt.Sprintf("must be at least %d characters", f.Validation.MinLength))
	}
	if f.Validation.MaxLength > 0 && n > f.Validation.MaxLength {
		msgs = append(msgs, fmt.Sprintf("must be at most %d characters", f.Validation.MaxLength))
	}
	if f.Validation.pattern != nil && text != "" && !f.Validation.pattern.MatchString(text) {
		msgs = append(msgs, "has an invalid format")
	}
	return msgs
}

func (f Field) checkOptions(v models.Value) []string {
	for _, sel := range models.Selections(v) {
		if !f.hasOption(sel) {
			return []string{fmt.Sprintf("%q is not an allowed option", sel)}
		}
	}
	if c, ok := v.(models.Choice); ok && c.SelectedValue == models.OtherValue && strings.TrimSpace(c.OtherValue) == "" {
		return []string{"please specify the other option"}
	}
	return nil
}

func (f Field) hasOption(value string) bool {
	return slices.ContainsFunc(f.Options, func(o Option) bool { return o.Value == value })
}

// CheckFile applies the field's file-type and file-size rules to one file.
// Allowed types are extensions (".pdf") or MIME-like suffixes ("pdf").
func (f Field) CheckFile(name string, size int64) []string {
	var msgs []string
	if allowed := f.Validation.AllowedFileTypes; len(allowed) > 0 && name != "" {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
		ok := slices.ContainsFunc(allowed, func(a string) bool {
			return strings.TrimPrefix(strings.ToLower(a), ".") == ext
		})
		if !ok {
			msgs = append(msgs, fmt.Sprintf("file type of %q is not allowed", name))
		}
	}
	if f.Validation.MaxFileSize > 0 && size > f.Validation.MaxFileSize {
		msgs = append(msgs, fmt.Sprintf("file %q exceeds %d bytes", name, f.Validation.MaxFileSize))
	}
	return msgs
}
