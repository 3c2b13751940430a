// pkg/registry/registry.go
// Package registry loads the built-in prompt template registry shipped with
// the service. Registry templates are read-only; administrable templates
// live in the database and shadow registry entries with the same identifier.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *TemplateRegistry) validate() error {
	seen := make(map[string]bool, len(r.Templates))
	for i, tmpl := range r.Templates {
		if tmpl.ID == "" {
			return fmt.Errorf("template at index %d has no id", i)
		}
		if seen[tmpl.ID] {
			return fmt.Errorf("duplicate template id %q", tmpl.ID)
		}
		seen[tmpl.ID] = true
		if tmpl.Body == "" {
			return fmt.Errorf("template %q has an empty body", tmpl.ID)
		}
	}
	return nil
}

// Find returns the registry template with the given identifier, if any.
func (r *TemplateRegistry) Find(id string) (*Template, bool) {
	for i := range r.Templates {
		if r.Templates[i].ID == id {
			return &r.Templates[i], true
		}
	}
	return nil, false
}
