// Package flat converts between nested value trees (maps, slices and scalars)
// and flat name->value mappings keyed by formpath names. It also turns
// ordered form data entries back into a tree, merging repeated names.
package flat

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formstate/pkg/formpath"
)

var (
	// ErrEmptyName is returned when a value is written to the form root.
	ErrEmptyName = errors.New("flat: field name is empty")
	// ErrShapeMismatch is returned when a path walks through a node of an
	// incompatible kind (for example indexing into an object).
	ErrShapeMismatch = errors.New("flat: path does not match value shape")
)

// Resolver decides what, if anything, is stored for a node during Flatten.
// Returning false skips the node itself; children are still visited.
type Resolver func(value any) (any, bool)

// Option configures Flatten.
type Option func(*config)

type config struct {
	resolve Resolver
	prefix  string
}

// WithResolve overrides the default node resolver.
func WithResolve(fn Resolver) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.resolve = fn
		}
	}
}

// WithPrefix roots the walk at name. The root node itself is then emitted
// under that name.
func WithPrefix(name string) Option {
	return func(cfg *config) {
		cfg.prefix = name
	}
}

// Flatten walks tree and returns one entry per node accepted by the resolver.
// Without a prefix the top-level map's own node is not emitted.
func Flatten(tree any, opts ...Option) map[string]any {
	cfg := config{resolve: DefaultResolver}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	result := make(map[string]any)
	var walk func(node any, name string)
	walk = func(node any, name string) {
		if value, ok := cfg.resolve(node); ok {
			result[name] = value
		}
		switch typed := node.(type) {
		case []any:
			for i, item := range typed {
				walk(item, itemName(name, i))
			}
		case []string:
			for i, item := range typed {
				walk(item, itemName(name, i))
			}
		case map[string]any:
			for key, value := range typed {
				walk(value, childName(name, key))
			}
		}
	}

	if cfg.prefix != "" {
		walk(tree, cfg.prefix)
		return result
	}
	if root, ok := tree.(map[string]any); ok {
		for key, value := range root {
			walk(value, key)
		}
	}
	return result
}

func childName(parent, key string) string {
	if parent == "" {
		return key
	}
	if key == "" {
		return parent
	}
	return parent + "." + key
}

func itemName(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}

// DefaultResolver keeps scalars as strings and lists of scalars as []string so
// checkbox groups can read the whole selection under the list's own name.
// Objects, mixed lists, files and nil values are skipped.
func DefaultResolver(value any) (any, bool) {
	switch typed := value.(type) {
	case nil, map[string]any, File:
		return nil, false
	case []string:
		return append([]string{}, typed...), true
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			str, ok := scalarString(item)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return scalarString(typed)
	}
}

// SetValue writes the value returned by updater at name, creating
// intermediate containers as needed: a slice when the next segment is an
// index, a map otherwise. It returns the new leaf value.
func SetValue(target map[string]any, name string, updater func(current any) any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("flat: set %q: target is nil", name)
	}
	segments := formpath.Parse(name)
	if len(segments) == 0 {
		return nil, ErrEmptyName
	}
	if segments[0].IsIndex() {
		return nil, fmt.Errorf("flat: set %q: %w", name, ErrShapeMismatch)
	}

	var leaf any
	if _, err := setIn(target, segments, updater, &leaf); err != nil {
		return nil, fmt.Errorf("flat: set %q: %w", name, err)
	}
	return leaf, nil
}

func setIn(node any, segments []formpath.Segment, updater func(any) any, leaf *any) (any, error) {
	seg := segments[0]
	last := len(segments) == 1

	if seg.IsIndex() {
		if seg.IsWildcard() {
			return nil, ErrShapeMismatch
		}
		list, err := asList(node)
		if err != nil {
			return nil, err
		}
		idx := seg.Index()
		if len(list) <= idx {
			list = append(list, make([]any, idx+1-len(list))...)
		}
		if last {
			list[idx] = updater(list[idx])
			*leaf = list[idx]
			return list, nil
		}
		child, err := setIn(containerFor(list[idx], segments[1]), segments[1:], updater, leaf)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	}

	obj, ok := node.(map[string]any)
	if !ok {
		if node != nil {
			return nil, ErrShapeMismatch
		}
		obj = make(map[string]any)
	}
	key := seg.Key()
	if last {
		obj[key] = updater(obj[key])
		*leaf = obj[key]
		return obj, nil
	}
	child, err := setIn(containerFor(obj[key], segments[1]), segments[1:], updater, leaf)
	if err != nil {
		return nil, err
	}
	obj[key] = child
	return obj, nil
}

func containerFor(current any, next formpath.Segment) any {
	if current != nil {
		return current
	}
	if next.IsIndex() {
		return []any{}
	}
	return map[string]any{}
}

func asList(node any) ([]any, error) {
	switch typed := node.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return typed, nil
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, nil
	default:
		return nil, ErrShapeMismatch
	}
}

// GetValue reads the node stored at name. The empty name returns the tree
// itself.
func GetValue(tree any, name string) (any, bool) {
	current := tree
	for _, seg := range formpath.Parse(name) {
		switch node := current.(type) {
		case map[string]any:
			if seg.IsIndex() {
				return nil, false
			}
			next, ok := node[seg.Key()]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx := seg.Index()
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		case []string:
			idx := seg.Index()
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Clone deep-copies maps and slices of a value tree. Scalars and files are
// shared.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
