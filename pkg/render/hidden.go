// Package render emits the markup a server-rendered form needs to take part
// in the state round trip: the hidden `__state__` entry, intent buttons and
// field error blocks.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/statecodec"
)

// HiddenField represents a hidden form input emitted alongside the visible
// controls.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// StateField encodes state into the reserved `__state__` field. A nil codec
// uses statecodec.JSON.
func StateField(state model.ResultState, codec statecodec.Codec) (HiddenField, error) {
	if codec == nil {
		codec = statecodec.JSON()
	}
	encoded, err := codec.Encode(state)
	if err != nil {
		return HiddenField{}, fmt.Errorf("render: encode state: %w", err)
	}
	return HiddenField{Name: model.StateField, Value: encoded}, nil
}

// Button is a submit button carrying a serialized intent.
type Button struct {
	Label string
	Name  string
	Value string
}

// IntentButton returns a submit button that sends intent as `__intent__`.
func IntentButton(label, intent string) Button {
	return Button{
		Label: strings.TrimSpace(label),
		Name:  model.IntentField,
		Value: intent,
	}
}

// MergeHiddenFields returns a copy of base with the provided fields applied.
// Empty names are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields sorts hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}
