// Package fill drives a form definition from a terminal: every field is a
// control of an in-memory document, answers are checked one field at a time
// through the validate intent and the whole form is submitted through the
// store until the constraints accept it.
package fill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/internal/prompt"
	"github.com/goliatone/go-formstate/pkg/attributes"
	"github.com/goliatone/go-formstate/pkg/constraint"
	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/dom/memdom"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/intent"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/statecodec"
	"github.com/goliatone/go-formstate/pkg/store"
	"github.com/goliatone/go-formstate/pkg/submission"
)

var (
	// ErrTooManyAttempts is returned when the form is still rejected after
	// the configured number of rounds.
	ErrTooManyAttempts = errors.New("fill: too many attempts")
	// ErrNotValidated is returned when a submit produced no outcome.
	ErrNotValidated = errors.New("fill: submission was not validated")
)

const checkboxValue = "on"

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxAttempts bounds how often a field is asked again and how many
// whole-form rounds run.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithStateCodec sets the codec of the `__state__` round trip.
func WithStateCodec(codec statecodec.Codec) Option {
	return func(s *Session) {
		if codec != nil {
			s.codec = codec
		}
	}
}

type control struct {
	name     string
	kind     memdom.Kind
	multiple bool
	el       *memdom.Control
}

// Session fills one form.
type Session struct {
	def         attributes.Definition
	doc         *memdom.Document
	el          *memdom.Form
	submitter   *memdom.Control
	registry    *store.Registry
	form        *store.Form
	controls    []control
	codec       statecodec.Codec
	logger      *slog.Logger
	maxAttempts int
	// stale holds fields whose last event asks for a validate intent.
	stale    map[string]bool
	unlisten []func()
}

// New builds the document and store of def.
func New(def attributes.Definition, opts ...Option) *Session {
	s := &Session{
		def:         def,
		doc:         memdom.New(),
		codec:       statecodec.JSON(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: 3,
		stale:       map[string]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	attrs := def.Attributes()
	s.el = s.doc.NewForm(def.ID)
	for _, name := range fieldNames(attrs) {
		s.controls = append(s.controls, s.addControl(name, attrs))
	}
	s.submitter = s.el.Button(model.IntentField, "")

	s.registry = store.New(s.doc,
		store.WithLogger(s.logger),
		store.WithStateCodec(s.codec),
		store.WithoutFocus(),
	)
	s.form = s.registry.Register(def.ID, attrs, nil)
	for _, typ := range []dom.EventType{dom.EventInput, dom.EventBlur} {
		s.unlisten = append(s.unlisten, s.doc.AddEventListener(typ, s.onFieldEvent))
	}
	return s
}

// Close releases the store.
func (s *Session) Close() {
	for _, remove := range s.unlisten {
		remove()
	}
	s.registry.Dispose()
}

// onFieldEvent marks a field stale on its first blur, and on every input
// once it has been validated.
func (s *Session) onFieldEvent(e *dom.Event) {
	s.form.HandleEvent(e, func(e *dom.Event, name string, validated bool) {
		if (e.Type == dom.EventBlur && !validated) || (e.Type == dom.EventInput && validated) {
			s.stale[name] = true
		}
	})
}

// Fields returns the names asked for, in order.
func (s *Session) Fields() []string {
	names := make([]string, len(s.controls))
	for i, c := range s.controls {
		names[i] = c.name
	}
	return names
}

// Snapshot returns the current form snapshot.
func (s *Session) Snapshot() *store.Snapshot {
	return s.form.Snapshot()
}

// Run asks for every field and submits until the form is accepted, then
// returns the accepted value tree.
func (s *Session) Run(ctx context.Context, d prompt.Driver) (map[string]any, error) {
	pending := s.controls
	for round := 1; ; round++ {
		for _, c := range pending {
			if err := s.askValid(ctx, d, c); err != nil {
				return nil, err
			}
		}

		sub, err := s.submit(ctx, nil)
		if err != nil {
			return nil, err
		}
		if sub.Status() == submission.StatusAccepted {
			value, _ := sub.Value()
			s.logger.Info("form accepted", "form", s.def.ID, "rounds", round)
			return value, nil
		}
		if round >= s.maxAttempts {
			return nil, fmt.Errorf("%w: form %q", ErrTooManyAttempts, s.def.ID)
		}

		pending = s.invalid()
		s.logger.Info("form rejected", "form", s.def.ID, "invalid", len(pending))
		if err := d.Info(ctx, fmt.Sprintf("%d field(s) need attention", len(pending))); err != nil {
			return nil, err
		}
	}
}

func (s *Session) askValid(ctx context.Context, d prompt.Driver, c control) error {
	for attempt := 1; ; attempt++ {
		if err := s.ask(ctx, d, c); err != nil {
			return err
		}
		s.doc.Blur(c.el)
		if s.stale[c.name] {
			delete(s.stale, c.name)
			if _, err := s.submit(ctx, s.submitter, intent.Validate(c.name)); err != nil {
				return err
			}
		}
		errs := field.Get(s.Snapshot(), c.name, nil).Errors
		if len(errs) == 0 || attempt >= s.maxAttempts {
			return nil
		}
		if err := d.Info(ctx, c.name+": "+strings.Join(errs, ", ")); err != nil {
			return err
		}
	}
}

func (s *Session) ask(ctx context.Context, d prompt.Driver, c control) error {
	view := field.Get(s.Snapshot(), c.name, nil)
	help := constraintHelp(view.Constraint)
	current := c.el.Values()

	switch {
	case c.kind == memdom.KindCheckbox:
		ok, err := d.Confirm(ctx, prompt.ConfirmConfig{Message: c.name, Default: len(current) > 0, Help: help})
		if err != nil {
			return err
		}
		if ok {
			s.doc.Input(c.el, checkboxValue)
		} else {
			s.doc.Input(c.el)
		}
	case c.multiple:
		kept := current
		if len(current) > 0 {
			var err error
			kept, err = d.Choose(ctx, prompt.ChoiceConfig{Message: c.name, Options: current, Selected: current, Help: help})
			if err != nil {
				return err
			}
		}
		answer, err := d.Input(ctx, prompt.InputConfig{Message: c.name + " (add)", Help: help})
		if err != nil {
			return err
		}
		s.doc.Input(c.el, mergeValues(kept, splitList(answer))...)
	default:
		answer, err := d.Input(ctx, prompt.InputConfig{Message: c.name, Default: firstOf(current), Help: help})
		if err != nil {
			return err
		}
		s.doc.Input(c.el, answer)
	}
	return nil
}

// submit posts the form through the store. With a submitter the given value
// is sent as the intent.
func (s *Session) submit(ctx context.Context, submitter *memdom.Control, value ...string) (*submission.Submission[map[string]any], error) {
	if submitter != nil {
		submitter.SetValues(value...)
	}
	opts := submission.Options[map[string]any]{
		Resolve: constraint.Resolver(s.def.Attributes().Constraint),
		Codec:   s.codec,
	}
	validate := func(ctx context.Context, _ dom.Form, entries flat.Entries) (submission.Outcome, error) {
		return submission.ParseAsync(ctx, entries, opts).Wait(ctx)
	}

	pending, err := s.form.SubmitAsync(ctx, s.doc.Submit(s.el, submitter), store.SubmitOptions{OnValidate: validate})
	if err != nil {
		return nil, fmt.Errorf("fill: submit %q: %w", s.def.ID, err)
	}
	res, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}
	sub, ok := res.Outcome.(*submission.Submission[map[string]any])
	if !ok {
		return nil, ErrNotValidated
	}
	return sub, nil
}

func (s *Session) invalid() []control {
	snap := s.Snapshot()
	var out []control
	for _, c := range s.controls {
		if len(snap.State.Error[c.name]) > 0 {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return s.controls
	}
	return out
}

func (s *Session) addControl(name string, attrs model.Attributes) control {
	c := control{name: name}
	raw, _ := flat.GetValue(s.def.DefaultValue, name)
	cons, _ := constraint.Lookup(attrs.Constraint, name)

	switch initial := attrs.DefaultValue[name].(type) {
	case []string:
		c.kind, c.multiple = memdom.KindSelect, true
		c.el = s.el.Select(name, initial...)
		return c
	case string:
		if checked, ok := raw.(bool); ok {
			c.kind = memdom.KindCheckbox
			c.el = s.el.Checkbox(name, checkboxValue, checked)
			return c
		}
		if cons.Multiple {
			c.kind, c.multiple = memdom.KindSelect, true
			c.el = s.el.Select(name, initial)
			return c
		}
		c.kind = memdom.KindText
		c.el = s.el.Text(name, initial)
		return c
	}

	if cons.Multiple {
		c.kind, c.multiple = memdom.KindSelect, true
		c.el = s.el.Select(name)
		return c
	}
	if _, ok := raw.(bool); ok {
		c.kind = memdom.KindCheckbox
		c.el = s.el.Checkbox(name, checkboxValue, false)
		return c
	}
	c.kind = memdom.KindText
	c.el = s.el.Text(name, "")
	return c
}

// fieldNames lists the defaults and the concrete constraint names, leaving
// out the items of scalar lists and wildcard names.
func fieldNames(attrs model.Attributes) []string {
	seen := map[string]struct{}{}
	for name := range attrs.DefaultValue {
		seen[name] = struct{}{}
	}
	for name := range attrs.Constraint {
		if !strings.Contains(name, "[]") {
			seen[name] = struct{}{}
		}
	}

	var lists []string
	for name, value := range attrs.DefaultValue {
		if _, ok := value.([]string); ok {
			lists = append(lists, name)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		if name == "" || itemOf(name, lists) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func itemOf(name string, lists []string) bool {
	for _, list := range lists {
		if name != list && formpath.IsPrefix(name, list) {
			return true
		}
	}
	return false
}

func constraintHelp(c model.Constraint) string {
	var parts []string
	if c.Required {
		parts = append(parts, "required")
	}
	if c.MinLength != nil {
		parts = append(parts, fmt.Sprintf("min length %d", *c.MinLength))
	}
	if c.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("max length %d", *c.MaxLength))
	}
	if c.Min != "" {
		parts = append(parts, "min "+c.Min)
	}
	if c.Max != "" {
		parts = append(parts, "max "+c.Max)
	}
	if c.Multiple {
		parts = append(parts, "comma separated")
	}
	return strings.Join(parts, "; ")
}

func splitList(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mergeValues(kept, added []string) []string {
	out := make([]string, 0, len(kept)+len(added))
	seen := map[string]bool{}
	for _, v := range append(slices.Clone(kept), added...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
