// Package store keeps the per-form state snapshots of a document and
// reconciles them with submissions: results are diffed against the current
// snapshot, custom validity is pushed to the DOM and only the subscribers
// interested in a changed field are notified.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/statecodec"
)

var (
	// ErrUnknownForm is returned when an id has no registered form.
	ErrUnknownForm = errors.New("store: unknown form")
	// ErrFormMismatch is returned when an event targets another form element.
	ErrFormMismatch = errors.New("store: event target does not match form")
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutFocus disables moving focus to the first invalid control.
func WithoutFocus() Option {
	return func(r *Registry) {
		r.focus = false
	}
}

// WithStateCodec sets the codec used for the `__state__` entry appended to
// submissions that do not render one.
func WithStateCodec(codec statecodec.Codec) Option {
	return func(r *Registry) {
		if codec != nil {
			r.codec = codec
		}
	}
}

// Registry owns the forms of one document.
type Registry struct {
	doc    dom.Document
	logger *slog.Logger
	focus  bool
	codec  statecodec.Codec

	mu          sync.Mutex
	forms       map[string]*Form
	removeReset func()
}

// New creates a registry bound to doc and installs its document-level reset
// listener.
func New(doc dom.Document, opts ...Option) *Registry {
	r := &Registry{
		doc:    doc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		focus:  true,
		codec:  statecodec.JSON(),
		forms:  map[string]*Form{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.removeReset = doc.AddEventListener(dom.EventReset, r.onReset)
	return r
}

// Dispose removes the document listener and drops every form.
func (r *Registry) Dispose() {
	r.mu.Lock()
	remove := r.removeReset
	r.removeReset = nil
	r.forms = map[string]*Form{}
	r.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Register returns the form registered under id, creating it on first use.
// The initial snapshot comes from lastResult when given (a result rendered
// by the server), from the default values otherwise. Registering an existing
// id replaces its attributes for the next reset and keeps its state.
func (r *Registry) Register(id string, attrs model.Attributes, lastResult *model.Result) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.forms[id]; ok {
		f.setAttributes(attrs)
		return f
	}
	f := newForm(r, id, attrs, lastResult)
	r.forms[id] = f
	r.logger.Debug("form registered", slog.String("form", id))
	return f
}

// Unregister drops the form and its subscribers.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.forms, id)
	r.mu.Unlock()
}

// Form returns the registered form.
func (r *Registry) Form(id string) (*Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, id)
	}
	return f, nil
}

// GetForm returns the current snapshot of the form.
func (r *Registry) GetForm(id string) (*Snapshot, error) {
	f, err := r.Form(id)
	if err != nil {
		return nil, err
	}
	return f.Snapshot(), nil
}

// Subscribe registers cb on the form; see Form.Subscribe.
func (r *Registry) Subscribe(id string, cb func(), shouldNotify func(model.Update) bool) (func(), error) {
	f, err := r.Form(id)
	if err != nil {
		return nil, err
	}
	return f.Subscribe(cb, shouldNotify), nil
}

// onReset routes genuine reset events to the owning form. Events of forms
// this registry does not know are ignored.
func (r *Registry) onReset(e *dom.Event) {
	if e == nil || e.Form == nil {
		return
	}
	r.mu.Lock()
	f, ok := r.forms[e.Form.ID()]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := f.Reset(e, nil); err != nil {
		r.logger.Warn("form reset failed", slog.String("form", f.id), slog.Any("error", err))
	}
}
