// Package field computes the per-field metadata a view binding renders from a
// form snapshot. Accessors are called eagerly and record what they read, so
// the binding can subscribe to exactly those fields.
package field

import (
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/constraint"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/store"
)

// View is the metadata of one field.
type View struct {
	Name string
	// ID and ErrorID are stable element ids for aria wiring.
	ID      string
	ErrorID string
	// InitialValue is the single default; InitialValues the group default of
	// list-of-scalar fields.
	InitialValue  string
	InitialValues []string
	Errors        []string
	Valid         bool
	Validated     bool
	// Key is the list item identity when the field is a list item.
	Key        string
	Constraint model.Constraint
}

// Get returns the view of name. rec may be nil.
func Get(snap *store.Snapshot, name string, rec *Recorder) View {
	rec.record(name, model.UpdateError, model.UpdateValidated)

	state := snap.State
	view := View{
		Name:      name,
		ID:        elementID(snap.ID, name),
		Errors:    []string{},
		Validated: state.Validated[name],
	}
	// Errors stay hidden until the field or an ancestor is validated.
	if formpath.Covers(state.Validated, name) {
		view.Errors = append(view.Errors, state.Error[name]...)
	}
	view.ErrorID = view.ID + "-error"
	view.Valid = len(view.Errors) == 0

	switch typed := state.InitialValue[name].(type) {
	case string:
		view.InitialValue = typed
	case []string:
		view.InitialValues = append([]string{}, typed...)
		if len(typed) > 0 {
			view.InitialValue = typed[0]
		}
	}

	if c, ok := constraint.Lookup(snap.Attributes.Constraint, name); ok {
		view.Constraint = c
	}

	segments := formpath.Parse(name)
	if n := len(segments); n > 0 && segments[n-1].IsIndex() && !segments[n-1].IsWildcard() {
		parent := formpath.Format(segments[:n-1])
		rec.record(parent, model.UpdateList)
		idx := segments[n-1].Index()
		if keys := state.ListKeys[parent]; idx < len(keys) {
			view.Key = keys[idx]
		} else {
			view.Key = strconv.Itoa(idx)
		}
	}
	return view
}

// List returns the views of the items of the list at name. Items are counted
// from the list keys, falling back to the initial values.
func List(snap *store.Snapshot, name string, rec *Recorder) []View {
	rec.record(name, model.UpdateList)

	n := len(snap.State.ListKeys[name])
	if _, ok := snap.State.ListKeys[name]; !ok {
		n = countItems(snap.State.InitialValue, name)
	}
	views := make([]View, n)
	for i := range views {
		views[i] = Get(snap, formpath.Item(name, i), rec)
	}
	return views
}

func countItems(values map[string]any, name string) int {
	if list, ok := values[name].([]string); ok {
		return len(list)
	}
	count := 0
	for key := range values {
		segments := formpath.Parse(key)
		prefix := formpath.Parse(name)
		if len(segments) <= len(prefix) || !formpath.IsPrefix(key, name) {
			continue
		}
		if seg := segments[len(prefix)]; seg.IsIndex() && seg.Index()+1 > count {
			count = seg.Index() + 1
		}
	}
	return count
}

func elementID(formID, name string) string {
	replacer := strings.NewReplacer(".", "-", "[", "-", "]", "")
	if name == "" {
		return formID
	}
	return formID + "-" + replacer.Replace(name)
}

// Recorder collects the fields and update types a render read.
type Recorder struct {
	mu       sync.Mutex
	subjects map[model.UpdateType]map[string]struct{}
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{subjects: map[model.UpdateType]map[string]struct{}{}}
}

func (r *Recorder) record(name string, types ...model.UpdateType) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, typ := range types {
		if r.subjects[typ] == nil {
			r.subjects[typ] = map[string]struct{}{}
		}
		r.subjects[typ][name] = struct{}{}
	}
}

// ShouldNotify reports whether u touches a recorded field, one of its
// descendants or one of its ancestors. Pass it to store subscriptions.
func (r *Recorder) ShouldNotify(u model.Update) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.subjects[u.Type] {
		if formpath.Related(u.Name, name) {
			return true
		}
	}
	return false
}

// Reset forgets everything recorded, for the next render.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.subjects = map[model.UpdateType]map[string]struct{}{}
	r.mu.Unlock()
}
