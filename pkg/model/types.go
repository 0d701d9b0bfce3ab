package model

import (
	"github.com/goliatone/go-formstate/pkg/flat"
)

// Reserved form field names.
const (
	// StateField carries the JSON-encoded ResultState across a page round trip.
	StateField = "__state__"
	// IntentField carries the serialized intent; it is only present on the
	// clicked submitter.
	IntentField = "__intent__"
)

// Constraint holds the declarative validation hints of a field. View
// bindings map them onto native input attributes. Min, Max and Step are kept
// as strings because they also apply to date and time inputs.
type Constraint struct {
	Required  bool   `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       string `json:"min,omitempty" yaml:"min,omitempty"`
	Max       string `json:"max,omitempty" yaml:"max,omitempty"`
	Step      string `json:"step,omitempty" yaml:"step,omitempty"`
	Multiple  bool   `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// IsZero reports whether no hint is set.
func (c Constraint) IsZero() bool {
	return !c.Required && c.MinLength == nil && c.MaxLength == nil &&
		c.Min == "" && c.Max == "" && c.Step == "" && !c.Multiple && c.Pattern == ""
}

// Attributes describe one generation of a form. They are replaced wholesale
// on reset and never mutated in place.
type Attributes struct {
	// DefaultValue is flat: name -> string or []string.
	DefaultValue map[string]any
	Constraint   map[string]Constraint
}

// NewAttributes serializes and flattens a nested default value tree.
func NewAttributes(defaultValue map[string]any, constraint map[string]Constraint) Attributes {
	attrs := Attributes{
		DefaultValue: map[string]any{},
		Constraint:   map[string]Constraint{},
	}
	if len(defaultValue) > 0 {
		attrs.DefaultValue = flat.Flatten(flat.Serialize(defaultValue))
	}
	for name, c := range constraint {
		attrs.Constraint[name] = c
	}
	return attrs
}

// State is the per-form snapshot. A missing error entry means the field has
// not been evaluated; an empty slice means it passed.
type State struct {
	InitialValue map[string]any
	Error        map[string][]string
	Validated    map[string]bool
	ListKeys     map[string][]string
}

// NewState returns an empty state seeded with initial values.
func NewState(initialValue map[string]any) State {
	return State{
		InitialValue: cloneValues(initialValue),
		Error:        map[string][]string{},
		Validated:    map[string]bool{},
		ListKeys:     map[string][]string{},
	}
}

// Clone deep-copies the snapshot.
func (s State) Clone() State {
	return State{
		InitialValue: cloneValues(s.InitialValue),
		Error:        CloneStrings(s.Error),
		Validated:    CloneFlags(s.Validated),
		ListKeys:     CloneStrings(s.ListKeys),
	}
}

// ResultState is the part of State that round-trips through the hidden
// StateField.
type ResultState struct {
	Validated map[string]bool     `json:"validated" msgpack:"validated"`
	ListKeys  map[string][]string `json:"listKeys" msgpack:"listKeys"`
}

// NewResultState returns an empty, non-nil ResultState.
func NewResultState() ResultState {
	return ResultState{
		Validated: map[string]bool{},
		ListKeys:  map[string][]string{},
	}
}

// Clone deep-copies the state, always returning non-nil maps.
func (s ResultState) Clone() ResultState {
	return ResultState{
		Validated: CloneFlags(s.Validated),
		ListKeys:  CloneStrings(s.ListKeys),
	}
}

// CloneStrings deep-copies a name -> []string map. The result is never nil.
func CloneStrings(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for name, values := range src {
		out[name] = append([]string{}, values...)
	}
	return out
}

// CloneFlags copies a name -> bool map. The result is never nil.
func CloneFlags(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for name, value := range src {
		out[name] = value
	}
	return out
}

func cloneValues(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for name, value := range src {
		out[name] = flat.Clone(value)
	}
	return out
}

// UpdateType names the part of a State an Update refers to.
type UpdateType string

const (
	UpdateError     UpdateType = "error"
	UpdateValidated UpdateType = "validated"
	UpdateList      UpdateType = "list"
)

// Update records one detected change between two snapshots. Updates are
// produced by the diff step and never stored.
type Update struct {
	Type UpdateType
	Name string
	Prev any
	Next any
}
