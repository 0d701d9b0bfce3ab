package store

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// Snapshot is an immutable view of a form. Every transition swaps in a new
// snapshot, so pointer equality tells consumers whether anything changed.
// Callers must not mutate its maps.
type Snapshot struct {
	ID         string
	Attributes model.Attributes
	State      model.State
}

type subscriber struct {
	cb           func()
	shouldNotify func(model.Update) bool
}

// Form is one registered form.
type Form struct {
	id       string
	registry *Registry

	mu          sync.Mutex
	attrs       model.Attributes
	snap        *Snapshot
	subscribers []*subscriber
	// seq is the last issued validation sequence number, applied the last
	// one whose result reached the snapshot.
	seq     uint64
	applied uint64
}

func newForm(r *Registry, id string, attrs model.Attributes, lastResult *model.Result) *Form {
	state := model.NewState(attrs.DefaultValue)
	if lastResult != nil && !lastResult.IsReset() {
		state = model.NewState(lastResult.InitialValue)
		state.Error = model.CloneStrings(lastResult.Error)
		state.Validated = model.CloneFlags(lastResult.State.Validated)
		state.ListKeys = model.CloneStrings(lastResult.State.ListKeys)
	}
	return &Form{
		id:       id,
		registry: r,
		attrs:    attrs,
		snap:     &Snapshot{ID: id, Attributes: attrs, State: state},
	}
}

// ID returns the form id.
func (f *Form) ID() string { return f.id }

// Snapshot returns the current snapshot.
func (f *Form) Snapshot() *Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *Form) setAttributes(attrs model.Attributes) {
	f.mu.Lock()
	f.attrs = attrs
	f.mu.Unlock()
}

// Subscribe registers cb. shouldNotify filters the updates of a transition;
// cb runs at most once per transition when it accepts any of them. A nil
// shouldNotify subscribes to every transition. The returned function removes
// exactly this subscription.
func (f *Form) Subscribe(cb func(), shouldNotify func(model.Update) bool) func() {
	s := &subscriber{cb: cb, shouldNotify: shouldNotify}
	f.mu.Lock()
	f.subscribers = append(f.subscribers, s)
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.subscribers = slices.DeleteFunc(f.subscribers, func(other *subscriber) bool {
				return other == s
			})
		})
	}
}

// UpdateOption configures Update.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	suppressFocus bool
}

// WithoutFocusOnError keeps focus where it is for this update.
func WithoutFocusOnError() UpdateOption {
	return func(cfg *updateConfig) {
		cfg.suppressFocus = true
	}
}

// Update applies a result to the form. A result without initial values is
// the reset signal and resets the live form element, which in turn resets
// the state through the document listener. Update always counts as the
// newest validation pass.
func (f *Form) Update(result model.Result, opts ...UpdateOption) {
	f.apply(f.nextSeq(), result, opts...)
}

func (f *Form) nextSeq() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

// apply reports false when a newer pass already reached the snapshot.
func (f *Form) apply(seq uint64, result model.Result, opts ...UpdateOption) bool {
	var cfg updateConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	f.mu.Lock()
	if seq < f.applied {
		applied := f.applied
		f.mu.Unlock()
		f.registry.logger.Debug("stale result discarded",
			slog.String("form", f.id), slog.Uint64("seq", seq), slog.Uint64("applied", applied))
		return false
	}
	f.applied = seq

	if result.IsReset() {
		f.mu.Unlock()
		if live, ok := f.registry.doc.Form(f.id); ok {
			live.Reset()
		} else {
			f.resetState(nil)
		}
		return true
	}

	next := model.State{
		InitialValue: model.NormalizeValues(result.InitialValue),
		Error:        model.CloneStrings(result.Error),
		Validated:    model.CloneFlags(result.State.Validated),
		ListKeys:     model.CloneStrings(result.State.ListKeys),
	}
	for _, name := range result.Skipped {
		if msgs, ok := f.snap.State.Error[name]; ok {
			next.Error[name] = slices.Clone(msgs)
		}
	}
	updates, subs := f.commitLocked(next)
	f.mu.Unlock()

	f.publish(next, updates, subs)
	if result.Failed() && f.registry.focus && !cfg.suppressFocus {
		f.focusFirstInvalid(next)
	}
	return true
}

// Reset handles a reset event for this form. attrs, when given, replace the
// attributes first.
func (f *Form) Reset(e *dom.Event, attrs *model.Attributes) error {
	if e == nil || e.Type != dom.EventReset || !f.isLive(e.Form) {
		return ErrFormMismatch
	}
	f.resetState(attrs)
	return nil
}

func (f *Form) resetState(attrs *model.Attributes) {
	f.mu.Lock()
	if attrs != nil {
		f.attrs = *attrs
	}
	f.seq++
	f.applied = f.seq
	next := model.NewState(f.attrs.DefaultValue)
	updates, subs := f.commitLocked(next)
	f.mu.Unlock()

	// Diff does not see defaults or attributes; reset notifies everyone.
	f.applyValidity(next, updates)
	for _, s := range subs {
		if f.subscribed(s) {
			s.cb()
		}
	}
}

// commitLocked swaps in the new snapshot and returns the detected updates and
// the subscribers to consider. f.mu must be held.
func (f *Form) commitLocked(next model.State) ([]model.Update, []*subscriber) {
	updates := Diff(f.snap.State, next)
	f.snap = &Snapshot{ID: f.id, Attributes: f.attrs, State: next}
	return updates, slices.Clone(f.subscribers)
}

func (f *Form) publish(next model.State, updates []model.Update, subs []*subscriber) {
	f.applyValidity(next, updates)
	for _, s := range subs {
		if !f.subscribed(s) {
			continue
		}
		if s.shouldNotify == nil || slices.ContainsFunc(updates, s.shouldNotify) {
			s.cb()
		}
	}
}

func (f *Form) subscribed(s *subscriber) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.subscribers, s)
}

func (f *Form) applyValidity(next model.State, updates []model.Update) {
	live, ok := f.registry.doc.Form(f.id)
	if !ok {
		return
	}
	changed := map[string]bool{}
	for _, u := range updates {
		if u.Type == model.UpdateError {
			changed[u.Name] = true
		}
	}
	if len(changed) == 0 {
		return
	}
	for _, c := range live.Controls() {
		if changed[c.Name()] {
			c.SetCustomValidity(strings.Join(next.Error[c.Name()], ", "))
		}
	}
}

func (f *Form) focusFirstInvalid(next model.State) {
	live, ok := f.registry.doc.Form(f.id)
	if !ok {
		return
	}
	for _, c := range live.Controls() {
		if len(next.Error[c.Name()]) > 0 {
			c.Focus()
			return
		}
	}
}

// FieldHandler receives an input or blur event resolved to a named field,
// together with whether that field (or an ancestor) is already validated.
type FieldHandler func(e *dom.Event, name string, validated bool)

// HandleEvent runs handler for an input or blur event on a named control of
// this form and reports whether it did. Events from foreign forms, unnamed
// controls and events whose default was already prevented are ignored.
func (f *Form) HandleEvent(e *dom.Event, handler FieldHandler) bool {
	if e == nil || e.Control == nil || e.DefaultPrevented() {
		return false
	}
	if e.Type != dom.EventInput && e.Type != dom.EventBlur {
		return false
	}
	name := e.Control.Name()
	if name == "" || !f.isLive(e.Control.Form()) {
		return false
	}
	if handler != nil {
		handler(e, name, formpath.Covers(f.Snapshot().State.Validated, name))
	}
	return true
}

// isLive reports whether target is the form element currently registered
// under this form's id.
func (f *Form) isLive(target dom.Form) bool {
	if target == nil || target.ID() != f.id {
		return false
	}
	live, ok := f.registry.doc.Form(f.id)
	return ok && live == target
}
