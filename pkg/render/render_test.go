package render_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/intent"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/statecodec"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.Hidden("_csrf", "token123"),
		render.Hidden("version", 4),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"version":  "4",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestStateFieldRoundTrips(t *testing.T) {
	state := model.NewResultState()
	state.Validated["age"] = true
	state.ListKeys["tasks"] = []string{"a"}

	hidden, err := render.StateField(state, nil)
	if err != nil {
		t.Fatalf("state field: %v", err)
	}
	if hidden.Name != model.StateField {
		t.Fatalf("expected %q, got %q", model.StateField, hidden.Name)
	}
	decoded, err := statecodec.JSON().Decode(hidden.Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(state, decoded); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderHiddenEscapesValues(t *testing.T) {
	out, err := render.RenderHidden([]render.HiddenField{
		{Name: "token", Value: "a<b>"},
		{Name: "version", Value: "2"},
	})
	if err != nil {
		t.Fatalf("render hidden: %v", err)
	}
	want := `<input type="hidden" name="token" value="a&lt;b&gt;">` +
		`<input type="hidden" name="version" value="2">`
	if out != want {
		t.Fatalf("unexpected markup\nwant: %s\ngot:  %s", want, out)
	}
}

func TestRenderButtonCarriesIntent(t *testing.T) {
	button := render.IntentButton(" Check ", intent.Validate("email"))
	if button.Name != model.IntentField || button.Label != "Check" {
		t.Fatalf("unexpected button %+v", button)
	}
	out, err := render.RenderButton(button)
	if err != nil {
		t.Fatalf("render button: %v", err)
	}
	want := `<button type="submit" name="__intent__" value="validate/email">Check</button>`
	if out != want {
		t.Fatalf("unexpected markup\nwant: %s\ngot:  %s", want, out)
	}
}

func TestRenderErrorsSanitizesMessages(t *testing.T) {
	view := field.View{
		Name:    "name",
		ErrorID: "signup-name-error",
		Errors:  []string{"Must be <b>bold</b>", "   "},
	}
	out, err := render.RenderErrors(view)
	if err != nil {
		t.Fatalf("render errors: %v", err)
	}
	want := `<div id="signup-name-error" class="field-error" role="alert"><p>Must be bold</p></div>`
	if out != want {
		t.Fatalf("unexpected markup\nwant: %s\ngot:  %s", want, out)
	}
	if strings.Contains(out, "<b>") {
		t.Fatalf("markup leaked into message: %s", out)
	}

	empty, err := render.RenderErrors(field.View{Name: "age", Valid: true})
	if err != nil || empty != "" {
		t.Fatalf("expected no markup for a valid field, got %q (%v)", empty, err)
	}
}

func TestAriaAttributes(t *testing.T) {
	got := render.AriaAttributes(field.View{ID: "f-name", ErrorID: "f-name-error", Errors: []string{"x"}})
	want := map[string]string{
		"id":               "f-name",
		"aria-invalid":     "true",
		"aria-describedby": "f-name-error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
}
