package fill_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/internal/fill"
	"github.com/goliatone/go-formstate/internal/prompt"
	"github.com/goliatone/go-formstate/pkg/attributes"
	"github.com/goliatone/go-formstate/pkg/statecodec"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

const signup = `
id: signup
defaultValue:
  name: ""
  age: 18
  newsletter: true
  tags: [go]
constraint:
  name: {required: true, minLength: 2}
  age: {min: "18"}
  tags: {multiple: true}
`

type scriptedDriver struct {
	answers  map[string][]string
	confirms map[string][]bool
	asked    []string
	infos    []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	queue := d.answers[cfg.Message]
	if len(queue) == 0 {
		return "", fmt.Errorf("no answer for %q: %w", cfg.Message, prompt.ErrAborted)
	}
	d.answers[cfg.Message] = queue[1:]
	return queue[0], nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	queue := d.confirms[cfg.Message]
	if len(queue) == 0 {
		return false, fmt.Errorf("no answer for %q: %w", cfg.Message, prompt.ErrAborted)
	}
	d.confirms[cfg.Message] = queue[1:]
	return queue[0], nil
}

func (d *scriptedDriver) Choose(_ context.Context, cfg prompt.ChoiceConfig) ([]string, error) {
	d.asked = append(d.asked, cfg.Message)
	return slices.Clone(cfg.Selected), nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func load(t *testing.T) attributes.Definition {
	t.Helper()
	def, err := attributes.Load([]byte(signup))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return def
}

func TestFieldsSkipScalarListItems(t *testing.T) {
	s := fill.New(load(t))
	defer s.Close()
	if diff := cmp.Diff([]string{"age", "name", "newsletter", "tags"}, s.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRunAsksAgainUntilFieldIsValid(t *testing.T) {
	s := fill.New(load(t), fill.WithStateCodec(statecodec.Signed([]byte("secret"))))
	defer s.Close()

	d := &scriptedDriver{
		answers: map[string][]string{
			"age":        {"20"},
			"name":       {"A", "Ada"},
			"tags (add)": {"forms, go"},
		},
		confirms: map[string][]bool{"newsletter": {false}},
	}
	value, err := s.Run(testsupport.Context(), d)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]any{
		"age":  "20",
		"name": "Ada",
		"tags": []any{"go", "forms"},
	}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"age", "name", "name", "newsletter", "tags", "tags (add)"}, d.asked); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name: Must be at least 2 characters"}, d.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
	if !s.Snapshot().State.Validated["name"] {
		t.Fatalf("expected name to be validated")
	}
}

func TestRunGivesUpAfterMaxAttempts(t *testing.T) {
	s := fill.New(load(t), fill.WithMaxAttempts(1))
	defer s.Close()

	d := &scriptedDriver{
		answers: map[string][]string{
			"age":        {"20"},
			"name":       {""},
			"tags (add)": {""},
		},
		confirms: map[string][]bool{"newsletter": {true}},
	}
	_, err := s.Run(testsupport.Context(), d)
	if !errors.Is(err, fill.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if diff := cmp.Diff([]string{"Required"}, s.Snapshot().State.Error["name"]); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnAbort(t *testing.T) {
	s := fill.New(load(t))
	defer s.Close()

	d := &scriptedDriver{answers: map[string][]string{}, confirms: map[string][]bool{}}
	if _, err := s.Run(testsupport.Context(), d); !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}
