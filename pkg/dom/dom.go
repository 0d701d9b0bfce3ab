// Package dom describes the slice of a browser document the form store
// drives: forms, their controls and the submit/reset/input/blur events
// dispatched on them. Hosts provide an implementation; memdom is an
// in-memory one used by tests and the CLI.
package dom

import (
	"github.com/goliatone/go-formstate/pkg/flat"
)

// EventType names a document event.
type EventType string

const (
	EventSubmit EventType = "submit"
	EventReset  EventType = "reset"
	EventInput  EventType = "input"
	EventBlur   EventType = "blur"
)

// Event is a dispatched document event.
type Event struct {
	Type EventType
	// Form is the target of submit and reset events.
	Form Form
	// Control is the target of input and blur events.
	Control Control
	// Submitter is the button that triggered a submit, if any.
	Submitter Control

	prevented bool
}

// PreventDefault cancels the native action of the event.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Listener receives document events.
type Listener func(*Event)

// Document is the page hosting the forms.
type Document interface {
	// Form returns the live form element with id.
	Form(id string) (Form, bool)
	// AddEventListener registers fn for typ and returns its remover.
	AddEventListener(typ EventType, fn Listener) (remove func())
}

// Form is a form element.
type Form interface {
	ID() string
	// Controls returns the form's controls in document order.
	Controls() []Control
	// Entries builds the form data set, including submitter when it is a
	// named button of this form.
	Entries(submitter Control) flat.Entries
	// Reset restores every control to its default and dispatches a reset
	// event.
	Reset()
}

// Control is an input, select, textarea or button.
type Control interface {
	Name() string
	// Form returns the owning form, nil when detached.
	Form() Form
	SetCustomValidity(message string)
	ValidationMessage() string
	Focus()
}

// Owns reports whether control belongs to form.
func Owns(form Form, control Control) bool {
	if form == nil || control == nil {
		return false
	}
	owner := control.Form()
	return owner != nil && owner.ID() == form.ID()
}
