// Package attributes builds form attributes (default values and field
// constraints) from declarative sources: YAML form definitions and OpenAPI
// request body schemas.
package attributes

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/model"
)

// ErrMissingID is returned when a definition has no form id.
var ErrMissingID = errors.New("attributes: form id is required")

// Definition is the declarative description of one form.
type Definition struct {
	ID string `yaml:"id" json:"id"`
	// DefaultValue is nested; it is serialized and flattened by Attributes.
	DefaultValue map[string]any             `yaml:"defaultValue" json:"defaultValue,omitempty"`
	Constraint   map[string]model.Constraint `yaml:"constraint" json:"constraint,omitempty"`
}

// Attributes returns the form attributes of the definition.
func (d Definition) Attributes() model.Attributes {
	return model.NewAttributes(d.DefaultValue, d.Constraint)
}

// Merge returns d with the constraints of other added. Constraints already
// present in d win.
func (d Definition) Merge(other Definition) Definition {
	out := Definition{
		ID:           d.ID,
		DefaultValue: d.DefaultValue,
		Constraint:   map[string]model.Constraint{},
	}
	for name, c := range other.Constraint {
		out.Constraint[name] = c
	}
	for name, c := range d.Constraint {
		out.Constraint[name] = c
	}
	if out.DefaultValue == nil {
		out.DefaultValue = other.DefaultValue
	}
	return out
}

// Load parses a YAML form definition:
//
//	id: signup
//	defaultValue:
//	  age: ""
//	  tags: [go]
//	constraint:
//	  age: {required: true, min: "18"}
//	  tasks[].title: {required: true}
func Load(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("attributes: parse definition: %w", err)
	}
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return Definition{}, ErrMissingID
	}
	if def.Constraint == nil {
		def.Constraint = map[string]model.Constraint{}
	}
	return def, nil
}
