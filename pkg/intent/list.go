package intent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

var (
	// ErrNotAList is returned when a list operation targets a non-list value.
	ErrNotAList = errors.New("intent: list operation applied to a non-list value")
	// ErrIndexOutOfRange is returned when a list operation addresses a
	// missing item.
	ErrIndexOutOfRange = errors.New("intent: list index out of range")
)

// Operation names a structural list change.
type Operation string

const (
	OpPrepend Operation = "prepend"
	OpAppend  Operation = "append"
	OpReplace Operation = "replace"
	OpRemove  Operation = "remove"
	OpReorder Operation = "reorder"
)

// ListPayload is the payload of a list intent. DefaultValue applies to
// prepend, append and replace; Index to replace and remove; From and To to
// reorder.
type ListPayload struct {
	Name         string    `json:"name"`
	Operation    Operation `json:"operation"`
	DefaultValue any       `json:"defaultValue,omitempty"`
	Index        int       `json:"index,omitempty"`
	From         int       `json:"from,omitempty"`
	To           int       `json:"to,omitempty"`
}

func (p ListPayload) validate() error {
	if p.Name == "" {
		return errors.New("list name is required")
	}
	switch p.Operation {
	case OpPrepend, OpAppend, OpReplace, OpRemove, OpReorder:
	default:
		return fmt.Errorf("unknown list operation %q", p.Operation)
	}
	if p.Index < 0 || p.From < 0 || p.To < 0 {
		return errors.New("list indices must not be negative")
	}
	return nil
}

// KeyGenerator returns a fresh, never reused item key.
type KeyGenerator func() string

// NewKey returns a time-ordered random key (UUIDv7).
func NewKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ListOption configures the list intent.
type ListOption func(*listConfig)

type listConfig struct {
	newKey KeyGenerator
}

// WithKeyGenerator overrides how item keys are generated.
func WithKeyGenerator(fn KeyGenerator) ListOption {
	return func(cfg *listConfig) {
		if fn != nil {
			cfg.newKey = fn
		}
	}
}

// ListDefinition returns the list intent.
func ListDefinition(options ...ListOption) Definition[ListPayload] {
	cfg := listConfig{newKey: NewKey}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Definition[ListPayload]{
		Name: "list",
		Encode: func(p ListPayload) (string, error) {
			data, err := json.Marshal(p)
			return string(data), err
		},
		Decode: func(raw string) (ListPayload, error) {
			var p ListPayload
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return ListPayload{}, err
			}
			return p, p.validate()
		},
		NewHandler: func(_ map[string]any, p ListPayload) Handler {
			return &listHandler{payload: p, newKey: cfg.newKey}
		},
	}
}

var defaultList = ListDefinition()

func serializeList(p ListPayload) string {
	raw, err := defaultList.Serialize(p)
	if err != nil {
		return ""
	}
	return raw
}

// Prepend returns the serialized intent inserting an item at the start.
func Prepend(name string, defaultValue any) string {
	return serializeList(ListPayload{Name: name, Operation: OpPrepend, DefaultValue: defaultValue})
}

// Append returns the serialized intent inserting an item at the end.
func Append(name string, defaultValue any) string {
	return serializeList(ListPayload{Name: name, Operation: OpAppend, DefaultValue: defaultValue})
}

// Replace returns the serialized intent replacing the item at index.
func Replace(name string, index int, defaultValue any) string {
	return serializeList(ListPayload{Name: name, Operation: OpReplace, Index: index, DefaultValue: defaultValue})
}

// Remove returns the serialized intent removing the item at index.
func Remove(name string, index int) string {
	return serializeList(ListPayload{Name: name, Operation: OpRemove, Index: index})
}

// Reorder returns the serialized intent moving the item at from to to.
func Reorder(name string, from, to int) string {
	return serializeList(ListPayload{Name: name, Operation: OpReorder, From: from, To: to})
}

type listHandler struct {
	payload     ListPayload
	newKey      KeyGenerator
	defaultKeys []string
}

func (h *listHandler) Preprocess(data map[string]any, state model.ResultState) error {
	var opErr error
	_, err := flat.SetValue(data, h.payload.Name, func(current any) any {
		list, ok := asList(current)
		if !ok {
			opErr = fmt.Errorf("%w: %q", ErrNotAList, h.payload.Name)
			return current
		}
		h.defaultKeys = h.keysFor(state.ListKeys[h.payload.Name], len(list))
		updated, err := applyOperation(list, h.payload, flat.Serialize(h.payload.DefaultValue))
		if err != nil {
			opErr = err
			return current
		}
		return updated
	})
	if err != nil {
		return fmt.Errorf("intent: list %q: %w", h.payload.Name, err)
	}
	return opErr
}

// keysFor returns the pre-mutation keys, generating a full set when the
// submitted state does not match the submitted list.
func (h *listHandler) keysFor(existing []string, length int) []string {
	if len(existing) == length {
		return append([]string{}, existing...)
	}
	keys := make([]string, length)
	for i := range keys {
		keys[i] = h.newKey()
	}
	return keys
}

func (h *listHandler) ShouldValidate(name string) bool {
	return name == h.payload.Name
}

func (h *listHandler) Update(state *model.ResultState, _ Outcome) {
	name := h.payload.Name
	keys, err := applyOperation(h.defaultKeys, h.payload, "")
	if err != nil {
		return
	}
	// applyOperation inserted placeholders; give new slots fresh keys.
	switch h.payload.Operation {
	case OpPrepend:
		keys[0] = h.newKey()
	case OpAppend:
		keys[len(keys)-1] = h.newKey()
	case OpReplace:
		keys[h.payload.Index] = h.newKey()
	}
	state.ListKeys[name] = keys

	order := make([]int, len(h.defaultKeys))
	for i := range order {
		order[i] = i
	}
	if moved, err := applyOperation(order, h.payload, -1); err == nil {
		reindexItems(state, name, moved)
	}
	state.Validated[name] = true
}

// reindexItems moves the state nested under the items of name to the
// positions the operation gave them. order[i] is the previous index of the
// item now at i, -1 for an inserted item. State of items that are gone, or
// were replaced, is dropped.
func reindexItems(state *model.ResultState, name string, order []int) {
	position := make(map[int]int, len(order))
	for i, prev := range order {
		if prev >= 0 {
			position[prev] = i
		}
	}
	depth := len(formpath.Parse(name))
	rename := func(field string) (string, bool) {
		segments := formpath.Parse(field)
		if len(segments) <= depth || !formpath.IsPrefix(field, name) {
			return field, true
		}
		seg := segments[depth]
		if !seg.IsIndex() || seg.IsWildcard() {
			return field, true
		}
		next, ok := position[seg.Index()]
		if !ok {
			return "", false
		}
		segments[depth] = formpath.Index(next)
		return formpath.Format(segments), true
	}

	validated := make(map[string]bool, len(state.Validated))
	for field, v := range state.Validated {
		if renamed, ok := rename(field); ok {
			validated[renamed] = v
		}
	}
	listKeys := make(map[string][]string, len(state.ListKeys))
	for field, v := range state.ListKeys {
		if renamed, ok := rename(field); ok {
			listKeys[renamed] = v
		}
	}
	state.Validated = validated
	state.ListKeys = listKeys
}

func asList(value any) ([]any, bool) {
	switch typed := value.(type) {
	case nil:
		return []any{}, true
	case []any:
		return typed, true
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// applyOperation applies p to a copy of list, using item for inserted slots.
func applyOperation[T any](list []T, p ListPayload, item T) ([]T, error) {
	out := slices.Clone(list)
	switch p.Operation {
	case OpPrepend:
		return slices.Insert(out, 0, item), nil
	case OpAppend:
		return append(out, item), nil
	case OpReplace:
		if p.Index >= len(out) {
			return nil, fmt.Errorf("%w: replace %d of %d", ErrIndexOutOfRange, p.Index, len(out))
		}
		out[p.Index] = item
		return out, nil
	case OpRemove:
		if p.Index >= len(out) {
			return nil, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, p.Index, len(out))
		}
		return slices.Delete(out, p.Index, p.Index+1), nil
	case OpReorder:
		if p.From >= len(out) || p.To >= len(out) {
			return nil, fmt.Errorf("%w: reorder %d->%d of %d", ErrIndexOutOfRange, p.From, p.To, len(out))
		}
		moved := out[p.From]
		out = slices.Delete(out, p.From, p.From+1)
		return slices.Insert(out, p.To, moved), nil
	default:
		return nil, fmt.Errorf("intent: unknown list operation %q", p.Operation)
	}
}
