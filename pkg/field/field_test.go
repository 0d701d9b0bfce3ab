package field_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/store"
)

func snapshot() *store.Snapshot {
	state := model.NewState(map[string]any{
		"title":            "Plan",
		"tags":             []string{"a", "b"},
		"tags[0]":          "a",
		"tags[1]":          "b",
		"tasks[0].content": "write",
		"tasks[1].content": "ship",
	})
	state.Error["title"] = []string{"Too short"}
	state.Validated["title"] = true
	state.ListKeys["tasks"] = []string{"k0", "k1"}
	return &store.Snapshot{
		ID: "plan",
		Attributes: model.Attributes{
			Constraint: map[string]model.Constraint{
				"title":           {Required: true},
				"tasks[].content": {Required: true},
			},
		},
		State: state,
	}
}

func TestGet(t *testing.T) {
	got := field.Get(snapshot(), "title", nil)
	want := field.View{
		Name:         "title",
		ID:           "plan-title",
		ErrorID:      "plan-title-error",
		InitialValue: "Plan",
		Errors:       []string{"Too short"},
		Valid:        false,
		Validated:    true,
		Constraint:   model.Constraint{Required: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHidesErrorsOfUnvalidatedFields(t *testing.T) {
	snap := snapshot()
	snap.State.Error["tasks[1].content"] = []string{"Required"}
	snap.State.Error["summary"] = []string{"Required"}

	if got := field.Get(snap, "summary", nil); len(got.Errors) != 0 || !got.Valid {
		t.Fatalf("unvalidated field must not show errors, got %+v", got)
	}

	snap.State.Validated["tasks"] = true
	got := field.Get(snap, "tasks[1].content", nil)
	if diff := cmp.Diff([]string{"Required"}, got.Errors); diff != "" {
		t.Fatalf("errors under a validated list mismatch (-want +got):\n%s", diff)
	}
	if got.Valid || got.Validated {
		t.Fatalf("expected an invalid item that is not validated itself, got %+v", got)
	}
}

func TestGetGroupValue(t *testing.T) {
	got := field.Get(snapshot(), "tags", nil)
	if diff := cmp.Diff([]string{"a", "b"}, got.InitialValues); diff != "" {
		t.Fatalf("group values mismatch (-want +got):\n%s", diff)
	}
	if !got.Valid {
		t.Fatalf("field without errors must be valid")
	}
}

func TestListUsesKeysAndWildcardConstraints(t *testing.T) {
	items := field.List(snapshot(), "tasks", nil)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Key != "k0" || items[1].Key != "k1" {
		t.Fatalf("unexpected keys %q %q", items[0].Key, items[1].Key)
	}

	content := field.Get(snapshot(), "tasks[1].content", nil)
	if content.InitialValue != "ship" || !content.Constraint.Required {
		t.Fatalf("unexpected item view %+v", content)
	}
}

func TestListFallsBackToInitialValues(t *testing.T) {
	items := field.List(snapshot(), "tags", nil)
	if len(items) != 2 || items[1].InitialValue != "b" || items[1].Key != "1" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestRecorderShouldNotify(t *testing.T) {
	rec := field.NewRecorder()
	snap := snapshot()
	field.Get(snap, "title", rec)
	field.List(snap, "tasks", rec)

	cases := []struct {
		update model.Update
		want   bool
	}{
		{model.Update{Type: model.UpdateError, Name: "title"}, true},
		{model.Update{Type: model.UpdateValidated, Name: "title"}, true},
		{model.Update{Type: model.UpdateError, Name: "tasks[0].content"}, true},
		{model.Update{Type: model.UpdateList, Name: "tasks"}, true},
		{model.Update{Type: model.UpdateList, Name: "tags"}, false},
		{model.Update{Type: model.UpdateError, Name: "summary"}, false},
	}
	for _, tc := range cases {
		if got := rec.ShouldNotify(tc.update); got != tc.want {
			t.Errorf("ShouldNotify(%+v) = %v, want %v", tc.update, got, tc.want)
		}
	}

	rec.Reset()
	if rec.ShouldNotify(model.Update{Type: model.UpdateError, Name: "title"}) {
		t.Fatalf("reset recorder must not match")
	}
}
