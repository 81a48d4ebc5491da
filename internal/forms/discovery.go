package forms

import (
	"fmt"
)

// Catalog holds the discovered form definitions of one project, keyed by
// ID, with duplicate IDs rejected at load time.
type Catalog struct {
	files map[string]DefinitionFile
	order []string
}

// DiscoverForms loads every YAML form definition under dir into a catalog.
func DiscoverForms(dir string) (*Catalog, error) {
	files, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	catalog := &Catalog{files: map[string]DefinitionFile{}}
	for _, file := range files {
		id := file.Definition.ID
		if existing, ok := catalog.files[id]; ok {
			return nil, fmt.Errorf("forms: duplicate form id %s (%s and %s)", id, existing.Path, file.Path)
		}
		catalog.files[id] = file
		catalog.order = append(catalog.order, id)
	}
	return catalog, nil
}

// IDs returns form IDs in discovery order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Get returns the definition for an ID.
func (c *Catalog) Get(id string) (FormConfig, bool) {
	if c == nil {
		return FormConfig{}, false
	}
	file, ok := c.files[id]
	return file.Definition, ok
}

// Path returns the source file of a definition.
func (c *Catalog) Path(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	file, ok := c.files[id]
	return file.Path, ok
}

// Len returns the number of discovered forms.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
