package schema

import (
	"fmt"

	"keystone/internal/onboarding/models"
	dErrors "keystone/pkg/domain-errors"
)

// Catalog holds the schema of every role.
type Catalog struct {
	schemas map[models.Role]*Schema
}

// NewCatalog loads the embedded definitions of all roles.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{schemas: make(map[models.Role]*Schema, len(models.Roles()))}
	for _, role := range models.Roles() {
		s, err := LoadEmbedded(role)
		if err != nil {
			return nil, err
		}
		c.schemas[role] = s
	}
	return c, nil
}

// NewCatalogFrom builds a catalog from already-loaded schemas.
func NewCatalogFrom(schemas ...*Schema) *Catalog {
	c := &Catalog{schemas: make(map[models.Role]*Schema, len(schemas))}
	for _, s := range schemas {
		c.schemas[s.Role] = s
	}
	return c
}

// Get returns the schema for role.
func (c *Catalog) Get(role models.Role) (*Schema, error) {
	s, ok := c.schemas[role]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no schema for role %q", role))
	}
	return s, nil
}
