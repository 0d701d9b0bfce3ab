// Package memdom is an in-memory dom.Document. It keeps control values,
// custom validity and focus so tests and terminal drivers can exercise the
// store without a browser.
package memdom

import (
	"slices"
	"sync"

	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/flat"
)

// Kind is the control type.
type Kind int

const (
	KindText Kind = iota
	KindHidden
	KindCheckbox
	KindSelect
	KindButton
)

type listener struct {
	fn dom.Listener
}

// Document is an in-memory dom.Document. It is safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	forms     map[string]*Form
	listeners map[dom.EventType][]*listener
	active    *Control
}

var _ dom.Document = (*Document)(nil)

// New returns an empty document.
func New() *Document {
	return &Document{
		forms:     map[string]*Form{},
		listeners: map[dom.EventType][]*listener{},
	}
}

// NewForm adds (or replaces) the form element with id.
func (d *Document) NewForm(id string) *Form {
	f := &Form{id: id, doc: d}
	d.mu.Lock()
	d.forms[id] = f
	d.mu.Unlock()
	return f
}

// RemoveForm detaches the form element with id.
func (d *Document) RemoveForm(id string) {
	d.mu.Lock()
	delete(d.forms, id)
	d.mu.Unlock()
}

// Form implements dom.Document.
func (d *Document) Form(id string) (dom.Form, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.forms[id]
	if !ok {
		return nil, false
	}
	return f, true
}

// AddEventListener implements dom.Document.
func (d *Document) AddEventListener(typ dom.EventType, fn dom.Listener) func() {
	l := &listener{fn: fn}
	d.mu.Lock()
	d.listeners[typ] = append(d.listeners[typ], l)
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners[typ] = slices.DeleteFunc(d.listeners[typ], func(other *listener) bool {
			return other == l
		})
	}
}

// Dispatch delivers e to every listener registered for its type.
func (d *Document) Dispatch(e *dom.Event) *dom.Event {
	d.mu.Lock()
	listeners := slices.Clone(d.listeners[e.Type])
	d.mu.Unlock()
	for _, l := range listeners {
		l.fn(e)
	}
	return e
}

// Submit dispatches a submit event for form, optionally from submitter.
func (d *Document) Submit(form *Form, submitter *Control) *dom.Event {
	e := &dom.Event{Type: dom.EventSubmit, Form: form}
	if submitter != nil {
		e.Submitter = submitter
	}
	return d.Dispatch(e)
}

// Input sets the control's values and dispatches an input event.
func (d *Document) Input(c *Control, values ...string) *dom.Event {
	c.SetValues(values...)
	return d.Dispatch(&dom.Event{Type: dom.EventInput, Control: c})
}

// Blur dispatches a blur event for c.
func (d *Document) Blur(c *Control) *dom.Event {
	d.mu.Lock()
	if d.active == c {
		d.active = nil
	}
	d.mu.Unlock()
	return d.Dispatch(&dom.Event{Type: dom.EventBlur, Control: c})
}

// Active returns the focused control, nil when none.
func (d *Document) Active() *Control {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Form is an in-memory form element.
type Form struct {
	id       string
	doc      *Document
	controls []*Control
}

var _ dom.Form = (*Form)(nil)

// ID implements dom.Form.
func (f *Form) ID() string { return f.id }

// Add appends a control with the given default values.
func (f *Form) Add(name string, kind Kind, defaults ...string) *Control {
	c := &Control{
		form:     f,
		name:     name,
		kind:     kind,
		defaults: slices.Clone(defaults),
		values:   slices.Clone(defaults),
	}
	f.doc.mu.Lock()
	f.controls = append(f.controls, c)
	f.doc.mu.Unlock()
	return c
}

// Text appends a text input.
func (f *Form) Text(name, defaultValue string) *Control {
	return f.Add(name, KindText, defaultValue)
}

// Hidden appends a hidden input.
func (f *Form) Hidden(name, value string) *Control {
	return f.Add(name, KindHidden, value)
}

// Checkbox appends a checkbox submitting value when checked.
func (f *Form) Checkbox(name, value string, checked bool) *Control {
	c := f.Add(name, KindCheckbox)
	c.checkValue = value
	if checked {
		c.defaults = []string{value}
		c.values = []string{value}
	}
	return c
}

// Select appends a (multi) select with the given selected options.
func (f *Form) Select(name string, selected ...string) *Control {
	return f.Add(name, KindSelect, selected...)
}

// Button appends a submit button with value.
func (f *Form) Button(name, value string) *Control {
	return f.Add(name, KindButton, value)
}

// Control returns the first control named name.
func (f *Form) Control(name string) *Control {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	for _, c := range f.controls {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Controls implements dom.Form.
func (f *Form) Controls() []dom.Control {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	out := make([]dom.Control, len(f.controls))
	for i, c := range f.controls {
		out[i] = c
	}
	return out
}

// Entries implements dom.Form.
func (f *Form) Entries(submitter dom.Control) flat.Entries {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	var entries flat.Entries
	for _, c := range f.controls {
		if c.name == "" {
			continue
		}
		if c.kind == KindButton {
			if submitter != nil && dom.Control(c) == submitter {
				entries = entries.Append(c.name, firstOrEmpty(c.values))
			}
			continue
		}
		switch c.kind {
		case KindText, KindHidden:
			entries = entries.Append(c.name, firstOrEmpty(c.values))
		default:
			for _, value := range c.values {
				entries = entries.Append(c.name, value)
			}
		}
	}
	return entries
}

// Reset implements dom.Form.
func (f *Form) Reset() {
	f.doc.mu.Lock()
	for _, c := range f.controls {
		c.values = slices.Clone(c.defaults)
	}
	f.doc.mu.Unlock()
	f.doc.Dispatch(&dom.Event{Type: dom.EventReset, Form: f})
}

// Control is an in-memory form control.
type Control struct {
	form       *Form
	name       string
	kind       Kind
	checkValue string
	defaults   []string
	values     []string
	custom     string
}

var _ dom.Control = (*Control)(nil)

// Name implements dom.Control.
func (c *Control) Name() string { return c.name }

// Form implements dom.Control.
func (c *Control) Form() dom.Form {
	if c.form == nil {
		return nil
	}
	return c.form
}

// Kind returns the control type.
func (c *Control) Kind() Kind { return c.kind }

// Values returns the current values.
func (c *Control) Values() []string {
	c.form.doc.mu.Lock()
	defer c.form.doc.mu.Unlock()
	return slices.Clone(c.values)
}

// SetValues replaces the current values. For checkboxes any non-empty value
// checks the box.
func (c *Control) SetValues(values ...string) {
	c.form.doc.mu.Lock()
	defer c.form.doc.mu.Unlock()
	if c.kind == KindCheckbox {
		c.values = nil
		if len(values) > 0 && values[0] != "" {
			c.values = []string{c.checkValue}
		}
		return
	}
	c.values = slices.Clone(values)
}

// SetCustomValidity implements dom.Control.
func (c *Control) SetCustomValidity(message string) {
	c.form.doc.mu.Lock()
	c.custom = message
	c.form.doc.mu.Unlock()
}

// ValidationMessage implements dom.Control.
func (c *Control) ValidationMessage() string {
	c.form.doc.mu.Lock()
	defer c.form.doc.mu.Unlock()
	return c.custom
}

// Focus implements dom.Control.
func (c *Control) Focus() {
	c.form.doc.mu.Lock()
	c.form.doc.active = c
	c.form.doc.mu.Unlock()
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
