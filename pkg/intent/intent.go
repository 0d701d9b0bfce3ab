// Package intent encodes structured commands into the single string carried
// by a submit button (`<type>/<payload>`) and turns a decoded command into a
// handler that runs around schema validation: Preprocess mutates the working
// value tree before validation, Update reconciles the form state after it.
package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

var (
	// ErrUnknownIntent is returned when an intent marker is present but no
	// registered intent claims it.
	ErrUnknownIntent = errors.New("intent: unknown intent")
	// ErrInvalidPayload is returned when an intent claims a marker whose
	// payload cannot be decoded.
	ErrInvalidPayload = errors.New("intent: invalid payload")
)

// Outcome is what validation produced, as seen by Handler.Update.
type Outcome struct {
	// Fields lists the submitted field names (reserved fields excluded).
	Fields []string
	// Error is the raw validator output, markers included.
	Error model.ErrorMap
}

// Handler applies one decoded intent.
type Handler interface {
	// Preprocess runs before validation and may mutate data. state is the
	// state decoded from the submission and must not be modified.
	Preprocess(data map[string]any, state model.ResultState) error
	// ShouldValidate reports whether a validator should evaluate name for
	// this intent.
	ShouldValidate(name string) bool
	// Update runs after validation settled and reconciles state.
	Update(state *model.ResultState, outcome Outcome)
}

// Intent is a registered intent type.
type Intent interface {
	Type() string
	// Resolve returns ok=false when raw belongs to another intent type.
	Resolve(raw string, data map[string]any) (h Handler, ok bool, err error)
}

// Definition describes an intent with a typed payload.
type Definition[P any] struct {
	Name       string
	Encode     func(P) (string, error)
	Decode     func(string) (P, error)
	NewHandler func(data map[string]any, payload P) Handler
}

// Type returns the intent type prefix.
func (d Definition[P]) Type() string { return d.Name }

// Serialize renders the payload as `<type>/<payload>`.
func (d Definition[P]) Serialize(payload P) (string, error) {
	encoded, err := d.Encode(payload)
	if err != nil {
		return "", fmt.Errorf("intent: encode %s payload: %w", d.Name, err)
	}
	return d.Name + "/" + encoded, nil
}

// Deserialize returns ok=false when raw is not of this type.
func (d Definition[P]) Deserialize(raw string) (P, bool, error) {
	var zero P
	kind, encoded, found := strings.Cut(raw, "/")
	if !found || kind != d.Name {
		return zero, false, nil
	}
	payload, err := d.Decode(encoded)
	if err != nil {
		return zero, true, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, d.Name, err)
	}
	return payload, true, nil
}

// Resolve implements Intent.
func (d Definition[P]) Resolve(raw string, data map[string]any) (Handler, bool, error) {
	payload, ok, err := d.Deserialize(raw)
	if !ok || err != nil {
		return nil, ok, err
	}
	return d.NewHandler(data, payload), true, nil
}

// Registry dispatches raw intent strings to registered intents.
type Registry struct {
	intents []Intent
}

// NewRegistry returns a registry probing intents in order.
func NewRegistry(intents ...Intent) *Registry {
	reg := &Registry{}
	for _, i := range intents {
		reg.Register(i)
	}
	return reg
}

// Default returns a registry with the validate and list intents.
func Default(options ...ListOption) *Registry {
	return NewRegistry(ValidateDefinition, ListDefinition(options...))
}

// Register appends an intent. Nil intents are ignored.
func (r *Registry) Register(i Intent) {
	if i == nil {
		return
	}
	r.intents = append(r.intents, i)
}

// Types returns the registered intent types in probe order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.intents))
	for _, i := range r.intents {
		out = append(out, i.Type())
	}
	return out
}

// Resolve returns the handler for raw. An empty raw string resolves to the
// validate-everything fallback.
func (r *Registry) Resolve(raw string, data map[string]any) (Handler, error) {
	if raw == "" {
		return fallbackHandler{}, nil
	}
	for _, i := range r.intents {
		h, ok, err := i.Resolve(raw, data)
		if err != nil {
			return nil, err
		}
		if ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, raw)
}

// fallbackHandler handles plain submits: every submitted field and every
// field with an error becomes validated, unless it only carries markers.
type fallbackHandler struct{}

func (fallbackHandler) Preprocess(map[string]any, model.ResultState) error { return nil }

func (fallbackHandler) ShouldValidate(string) bool { return true }

func (fallbackHandler) Update(state *model.ResultState, outcome Outcome) {
	for _, name := range outcome.Fields {
		if msgs, ok := outcome.Error[name]; ok && msgs.OnlyMarkers() {
			continue
		}
		state.Validated[name] = true
	}
	for name, msgs := range outcome.Error {
		if msgs.OnlyMarkers() {
			continue
		}
		state.Validated[name] = true
	}
}
