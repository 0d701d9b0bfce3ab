package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
)

var fixtures = filepath.Join("..", "..", "pkg", "attributes", "testdata")

func TestLoadDefinitionMergesSchemaConstraints(t *testing.T) {
	def, err := loadDefinition(context.Background(), options{
		definition:  filepath.Join(fixtures, "signup.yaml"),
		openapi:     filepath.Join(fixtures, "openapi.yaml"),
		operationID: "createSignup",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.ID != "signup" {
		t.Fatalf("expected the definition id to win, got %q", def.ID)
	}
	two := 2
	if diff := cmp.Diff(model.Constraint{Required: true, MinLength: &two}, def.Constraint["name"]); diff != "" {
		t.Fatalf("name constraint mismatch (-want +got):\n%s", diff)
	}
	if def.Constraint["email"].Pattern == "" {
		t.Fatalf("expected the schema email constraint to be merged")
	}
}

func TestLoadDefinitionFromSchemaOnly(t *testing.T) {
	def, err := loadDefinition(context.Background(), options{
		openapi:     filepath.Join(fixtures, "openapi.yaml"),
		operationID: "createSignup",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.ID != "createSignup" {
		t.Fatalf("expected operation id as form id, got %q", def.ID)
	}
}

func TestLoadDefinitionRequiresSource(t *testing.T) {
	if _, err := loadDefinition(context.Background(), options{}); err == nil {
		t.Fatalf("expected an error without sources")
	}
}
