package intent_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/intent"
	"github.com/goliatone/go-formstate/pkg/model"
)

func sequentialKeys() intent.KeyGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func TestValidateIntentSerialization(t *testing.T) {
	raw := intent.Validate("address.city")
	if raw != "validate/address.city" {
		t.Fatalf("unexpected serialized intent %q", raw)
	}
	name, ok, err := intent.ValidateDefinition.Deserialize(raw)
	if err != nil || !ok {
		t.Fatalf("deserialize: ok=%v err=%v", ok, err)
	}
	if name != "address.city" {
		t.Fatalf("expected address.city, got %q", name)
	}

	if _, ok, err := intent.ValidateDefinition.Deserialize(intent.Append("tags", "x")); ok || err != nil {
		t.Fatalf("foreign intent must not match: ok=%v err=%v", ok, err)
	}
}

func TestListIntentRoundTrip(t *testing.T) {
	def := intent.ListDefinition()
	raw := intent.Reorder("tasks", 2, 0)
	payload, ok, err := def.Deserialize(raw)
	if err != nil || !ok {
		t.Fatalf("deserialize: ok=%v err=%v", ok, err)
	}
	want := intent.ListPayload{Name: "tasks", Operation: intent.OpReorder, From: 2, To: 0}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := intent.Default()
	if diff := cmp.Diff([]string{"validate", "list"}, reg.Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}

	handler, err := reg.Resolve("", nil)
	if err != nil || handler == nil {
		t.Fatalf("expected fallback handler, got %v", err)
	}
	if !handler.ShouldValidate("anything") {
		t.Fatalf("fallback must validate every field")
	}

	if _, err := reg.Resolve("unknown/payload", nil); !errors.Is(err, intent.ErrUnknownIntent) {
		t.Fatalf("expected ErrUnknownIntent, got %v", err)
	}
	if _, err := reg.Resolve("list/{not json", nil); !errors.Is(err, intent.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if _, err := reg.Resolve(`list/{"name":"tags","operation":"shuffle"}`, nil); !errors.Is(err, intent.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for unknown operation, got %v", err)
	}
}

func TestValidateHandlerScope(t *testing.T) {
	handler, err := intent.Default().Resolve(intent.Validate("address"), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for name, want := range map[string]bool{
		"address":      true,
		"address.city": true,
		"addressLine":  false,
		"title":        false,
	} {
		if got := handler.ShouldValidate(name); got != want {
			t.Errorf("ShouldValidate(%q) = %v, want %v", name, got, want)
		}
	}

	state := model.NewResultState()
	handler.Update(&state, intent.Outcome{})
	if !state.Validated["address"] {
		t.Fatalf("expected address to be marked validated")
	}
}

func TestFallbackSkipsMarkerOnlyFields(t *testing.T) {
	handler, _ := intent.Default().Resolve("", nil)
	state := model.NewResultState()
	handler.Update(&state, intent.Outcome{
		Fields: []string{"title", "age"},
		Error: model.ErrorMap{
			"age":   {model.Skipped()},
			"email": {model.Text("Invalid")},
		},
	})
	want := map[string]bool{"title": true, "email": true}
	if diff := cmp.Diff(want, state.Validated); diff != "" {
		t.Fatalf("validated mismatch (-want +got):\n%s", diff)
	}
}

func runList(t *testing.T, raw string, data map[string]any, state model.ResultState) model.ResultState {
	t.Helper()
	reg := intent.Default(intent.WithKeyGenerator(sequentialKeys()))
	handler, err := reg.Resolve(raw, data)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := handler.Preprocess(data, state); err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	next := state.Clone()
	handler.Update(&next, intent.Outcome{})
	return next
}

func TestListAppendAssignsFreshKey(t *testing.T) {
	data := map[string]any{"tasks": []any{map[string]any{"content": "a"}}}
	state := model.NewResultState()
	state.ListKeys["tasks"] = []string{"k0"}

	next := runList(t, intent.Append("tasks", map[string]any{"content": "b"}), data, state)

	wantData := map[string]any{"tasks": []any{
		map[string]any{"content": "a"},
		map[string]any{"content": "b"},
	}}
	if diff := cmp.Diff(wantData, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k0", "gen-1"}, next.ListKeys["tasks"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if !next.Validated["tasks"] {
		t.Fatalf("expected list to be marked validated")
	}
}

func TestListPrependOnMissingList(t *testing.T) {
	data := map[string]any{}
	next := runList(t, intent.Prepend("tags", "x"), data, model.NewResultState())

	if diff := cmp.Diff(map[string]any{"tags": []any{"x"}}, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gen-1"}, next.ListKeys["tags"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListRemoveKeepsRemainingKeys(t *testing.T) {
	data := map[string]any{"tags": []any{"a", "b", "c"}}
	state := model.NewResultState()
	state.ListKeys["tags"] = []string{"k0", "k1", "k2"}
	state.Validated["tags[1]"] = true
	state.Validated["tags[0]"] = true

	next := runList(t, intent.Remove("tags", 1), data, state)

	if diff := cmp.Diff(map[string]any{"tags": []any{"a", "c"}}, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k0", "k2"}, next.ListKeys["tags"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	want := map[string]bool{"tags[0]": true, "tags": true}
	if diff := cmp.Diff(want, next.Validated); diff != "" {
		t.Fatalf("validated mismatch (-want +got):\n%s", diff)
	}
}

func TestListReplaceClearsNestedState(t *testing.T) {
	data := map[string]any{"tasks": []any{
		map[string]any{"content": "a"},
		map[string]any{"content": "b"},
	}}
	state := model.NewResultState()
	state.ListKeys["tasks"] = []string{"k0", "k1"}
	state.ListKeys["tasks[0].tags"] = []string{"t0"}
	state.Validated["tasks[0].content"] = true
	state.Validated["tasks[1].content"] = true

	next := runList(t, intent.Replace("tasks", 0, map[string]any{"content": "z"}), data, state)

	if diff := cmp.Diff([]string{"gen-1", "k1"}, next.ListKeys["tasks"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if _, ok := next.ListKeys["tasks[0].tags"]; ok {
		t.Fatalf("expected nested list keys of the replaced item to be cleared")
	}
	want := map[string]bool{"tasks[1].content": true, "tasks": true}
	if diff := cmp.Diff(want, next.Validated); diff != "" {
		t.Fatalf("validated mismatch (-want +got):\n%s", diff)
	}
}

func TestListReorderPermutesKeys(t *testing.T) {
	data := map[string]any{"tags": []any{"a", "b", "c"}}
	state := model.NewResultState()
	state.ListKeys["tags"] = []string{"k0", "k1", "k2"}

	next := runList(t, intent.Reorder("tags", 0, 2), data, state)

	if diff := cmp.Diff(map[string]any{"tags": []any{"b", "c", "a"}}, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k1", "k2", "k0"}, next.ListKeys["tags"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListRemoveShiftsNestedState(t *testing.T) {
	data := map[string]any{"tasks": []any{
		map[string]any{"content": "a"},
		map[string]any{"content": "b"},
	}}
	state := model.NewResultState()
	state.ListKeys["tasks"] = []string{"k0", "k1"}
	state.ListKeys["tasks[1].tags"] = []string{"t0"}
	state.Validated["tasks[0].content"] = true
	state.Validated["tasks[1].content"] = true
	state.Validated["title"] = true

	next := runList(t, intent.Remove("tasks", 0), data, state)

	want := map[string]bool{"tasks[0].content": true, "tasks": true, "title": true}
	if diff := cmp.Diff(want, next.Validated); diff != "" {
		t.Fatalf("validated mismatch (-want +got):\n%s", diff)
	}
	wantKeys := map[string][]string{"tasks": {"k1"}, "tasks[0].tags": {"t0"}}
	if diff := cmp.Diff(wantKeys, next.ListKeys); diff != "" {
		t.Fatalf("list keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListPrependAndReorderMoveNestedState(t *testing.T) {
	data := map[string]any{"tasks": []any{
		map[string]any{"content": "a"},
		map[string]any{"content": "b"},
	}}
	state := model.NewResultState()
	state.ListKeys["tasks"] = []string{"k0", "k1"}
	state.Validated["tasks[0].content"] = true

	next := runList(t, intent.Prepend("tasks", map[string]any{"content": ""}), data, state)
	want := map[string]bool{"tasks[1].content": true, "tasks": true}
	if diff := cmp.Diff(want, next.Validated); diff != "" {
		t.Fatalf("validated after prepend mismatch (-want +got):\n%s", diff)
	}

	next = runList(t, intent.Reorder("tasks", 1, 2), data, next)
	want = map[string]bool{"tasks[2].content": true, "tasks": true}
	if diff := cmp.Diff(want, next.Validated); diff != "" {
		t.Fatalf("validated after reorder mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gen-1", "k1", "k0"}, next.ListKeys["tasks"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListRegeneratesMisalignedKeys(t *testing.T) {
	data := map[string]any{"tags": []any{"a", "b"}}
	state := model.NewResultState()
	state.ListKeys["tags"] = []string{"stale"}

	next := runList(t, intent.Remove("tags", 0), data, state)

	if diff := cmp.Diff([]string{"gen-2"}, next.ListKeys["tags"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListErrors(t *testing.T) {
	reg := intent.Default()

	handler, err := reg.Resolve(intent.Append("title", "x"), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	err = handler.Preprocess(map[string]any{"title": map[string]any{"a": "b"}}, model.NewResultState())
	if !errors.Is(err, intent.ErrNotAList) {
		t.Fatalf("expected ErrNotAList, got %v", err)
	}

	handler, _ = reg.Resolve(intent.Remove("tags", 3), nil)
	err = handler.Preprocess(map[string]any{"tags": []any{"a"}}, model.NewResultState())
	if !errors.Is(err, intent.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDefaultKeyGeneratorNeverRepeats(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := intent.NewKey()
		if seen[key] {
			t.Fatalf("key %q generated twice", key)
		}
		seen[key] = true
	}
}
