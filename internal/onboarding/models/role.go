package models

import dErrors "keystone/pkg/domain-errors"

// Role selects which wizard a user walks through.
type Role string

const (
	RoleInvestor Role = "investor"
	RoleSponsor  Role = "sponsor"
)

// Roles lists the supported roles in display order.
func Roles() []Role {
	return []Role{RoleInvestor, RoleSponsor}
}

// ParseRole validates a role taken from a URL or CLI argument.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInvestor, RoleSponsor:
		return Role(s), nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeNotFound, "unknown onboarding role: "+s)
	}
}

func (r Role) String() string {
	return string(r)
}

// FieldType is the collectible shape of a schema field.
type FieldType string

const (
	FieldShortText       FieldType = "short-text"
	FieldLongText        FieldType = "long-text"
	FieldSingleSelect    FieldType = "single-select"
	FieldChoiceWithOther FieldType = "single-choice-with-other"
	FieldFile            FieldType = "file"
	FieldMultiFile       FieldType = "multi-file"
	FieldMultiText       FieldType = "multi-text"
	FieldComposite       FieldType = "custom-composite"
)

var validFieldTypes = map[FieldType]bool{
	FieldShortText:       true,
	FieldLongText:        true,
	FieldSingleSelect:    true,
	FieldChoiceWithOther: true,
	FieldFile:            true,
	FieldMultiFile:       true,
	FieldMultiText:       true,
	FieldComposite:       true,
}

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	return validFieldTypes[t]
}

// HasOptions reports whether fields of this type carry an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldSingleSelect || t == FieldChoiceWithOther
}

// IsFile reports whether fields of this type collect file references.
func (t FieldType) IsFile() bool {
	return t == FieldFile || t == FieldMultiFile
}
