package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/attributes"
	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// MustLoadDefinition reads a YAML form definition fixture.
func MustLoadDefinition(t *testing.T, path string) attributes.Definition {
	t.Helper()

	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// LoadDefinition returns a Definition without requiring testing.T.
func LoadDefinition(path string) (attributes.Definition, error) {
	if path == "" {
		return attributes.Definition{}, errors.New("testsupport: definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return attributes.Definition{}, fmt.Errorf("testsupport: read definition: %w", err)
	}
	def, err := attributes.Load(data)
	if err != nil {
		return attributes.Definition{}, fmt.Errorf("testsupport: load definition: %w", err)
	}
	return def, nil
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// Recorder counts subscriber invocations.
type Recorder struct {
	mu    sync.Mutex
	calls int
}

// Callback returns the function to pass to Subscribe.
func (r *Recorder) Callback() func() {
	return func() {
		r.mu.Lock()
		r.calls++
		r.mu.Unlock()
	}
}

// Calls returns how often the callback ran.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Rules maps field names to the message returned when the field is empty.
type Rules map[string]string

// Resolver returns a validator rejecting empty fields with their rule
// message. Fields outside the intent's scope are reported as skipped.
func (r Rules) Resolver() submission.Resolver[map[string]any] {
	return func(ctx submission.Context) (map[string]any, model.ErrorMap, error) {
		errs := model.ErrorMap{}
		for name, message := range r {
			if !ctx.ShouldValidate(name) {
				errs.Add(name, model.Skipped())
				continue
			}
			value, _ := flat.GetValue(ctx.Payload, name)
			if str, _ := value.(string); str == "" {
				errs.Add(name, model.Text(message))
			}
		}
		return ctx.Payload, errs, nil
	}
}

// OnValidate adapts the rules to a store validate hook parsing with opts.
func (r Rules) OnValidate(opts submission.Options[map[string]any]) func(context.Context, dom.Form, flat.Entries) (submission.Outcome, error) {
	opts.Resolve = r.Resolver()
	return func(_ context.Context, _ dom.Form, entries flat.Entries) (submission.Outcome, error) {
		sub, err := submission.Parse(entries, opts)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
}
