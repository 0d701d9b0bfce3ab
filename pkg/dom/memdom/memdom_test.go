package memdom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/dom/memdom"
	"github.com/goliatone/go-formstate/pkg/flat"
)

func TestEntriesFollowControlKinds(t *testing.T) {
	doc := memdom.New()
	form := doc.NewForm("signup")
	form.Text("name", "Ada")
	form.Hidden("token", "t1")
	form.Checkbox("newsletter", "on", true)
	form.Checkbox("terms", "yes", false)
	form.Select("tags", "go", "forms")
	save := form.Button("__intent__", "validate/name")
	form.Button("other", "x")

	want := flat.Entries{
		{Name: "name", Value: "Ada"},
		{Name: "token", Value: "t1"},
		{Name: "newsletter", Value: "on"},
		{Name: "tags", Value: "go"},
		{Name: "tags", Value: "forms"},
		{Name: "__intent__", Value: "validate/name"},
	}
	if diff := cmp.Diff(want, form.Entries(save)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if _, ok := form.Entries(nil).Get("__intent__"); ok {
		t.Fatalf("buttons must only submit when they are the submitter")
	}
}

func TestResetRestoresDefaultsAndDispatches(t *testing.T) {
	doc := memdom.New()
	form := doc.NewForm("signup")
	name := form.Text("name", "Ada")
	box := form.Checkbox("newsletter", "on", false)

	var resets []string
	remove := doc.AddEventListener(dom.EventReset, func(e *dom.Event) {
		resets = append(resets, e.Form.ID())
	})

	doc.Input(name, "Grace")
	box.SetValues("anything")
	if diff := cmp.Diff([]string{"on"}, box.Values()); diff != "" {
		t.Fatalf("checkbox values mismatch (-want +got):\n%s", diff)
	}

	form.Reset()
	if diff := cmp.Diff([]string{"Ada"}, name.Values()); diff != "" {
		t.Fatalf("values after reset mismatch (-want +got):\n%s", diff)
	}
	if len(box.Values()) != 0 {
		t.Fatalf("expected the checkbox to be unchecked after reset")
	}

	remove()
	form.Reset()
	if diff := cmp.Diff([]string{"signup"}, resets); diff != "" {
		t.Fatalf("reset events mismatch (-want +got):\n%s", diff)
	}
}

func TestFocusValidityAndOwnership(t *testing.T) {
	doc := memdom.New()
	form := doc.NewForm("a")
	other := doc.NewForm("b")
	name := form.Text("name", "")
	foreign := other.Text("name", "")

	name.SetCustomValidity("Required")
	if name.ValidationMessage() != "Required" {
		t.Fatalf("expected custom validity to stick")
	}
	name.Focus()
	if doc.Active() != name {
		t.Fatalf("expected name to be focused")
	}
	doc.Blur(name)
	if doc.Active() != nil {
		t.Fatalf("expected blur to clear focus")
	}

	if !dom.Owns(form, name) || dom.Owns(form, foreign) {
		t.Fatalf("unexpected ownership")
	}

	doc.RemoveForm("b")
	if _, ok := doc.Form("b"); ok {
		t.Fatalf("expected removed form to be gone")
	}
}

func TestSubmitMarksPrevented(t *testing.T) {
	doc := memdom.New()
	form := doc.NewForm("a")
	doc.AddEventListener(dom.EventSubmit, func(e *dom.Event) { e.PreventDefault() })

	e := doc.Submit(form, nil)
	if e.Submitter != nil || !e.DefaultPrevented() {
		t.Fatalf("unexpected submit event %+v", e)
	}
}
