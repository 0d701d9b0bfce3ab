package attributes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// ErrOperationNotFound is returned when no operation carries the requested
// operationId.
var ErrOperationNotFound = errors.New("attributes: operation not found")

// FromOpenAPI derives a definition from the request body schema of the
// operation identified by operationID. Nested properties become dotted names
// and array items use the `[]` wildcard (`tasks[].title`). Schema defaults
// outside arrays become default values.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (Definition, error) {
	if len(raw) == 0 {
		return Definition{}, errors.New("attributes: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return Definition{}, fmt.Errorf("attributes: load openapi document: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return Definition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	def := Definition{
		ID:           operationID,
		DefaultValue: map[string]any{},
		Constraint:   map[string]model.Constraint{},
	}
	w := walker{def: &def}
	if err := w.walk(requestSchema(op.RequestBody), "", false, false); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	for _, mt := range content {
		if mt != nil {
			return mt.Schema
		}
	}
	return nil
}

type walker struct {
	def *Definition
}

func (w walker) walk(ref *openapi3.SchemaRef, name string, required, inList bool) error {
	if ref == nil || ref.Value == nil {
		return nil
	}
	schema := ref.Value

	switch schemaType(schema) {
	case "object":
		requiredSet := make(map[string]bool, len(schema.Required))
		for _, prop := range schema.Required {
			requiredSet[prop] = true
		}
		names := make([]string, 0, len(schema.Properties))
		for prop := range schema.Properties {
			names = append(names, prop)
		}
		sort.Strings(names)
		for _, prop := range names {
			if err := w.walk(schema.Properties[prop], formpath.Child(name, prop), requiredSet[prop], inList); err != nil {
				return err
			}
		}
		return nil
	case "array":
		// Only scalar lists submit their items under the list's own name.
		if schema.Items == nil || schema.Items.Value == nil || schemaType(schema.Items.Value) != "object" {
			w.def.Constraint[name] = model.Constraint{Required: required && schema.MinItems > 0, Multiple: true}
		}
		return w.walk(schema.Items, formpath.Join(name, formpath.Wildcard()), false, true)
	}

	c := scalarConstraint(schema, required)
	if !c.IsZero() {
		w.def.Constraint[name] = c
	}
	if schema.Default != nil && !inList && name != "" {
		value := schema.Default
		if _, err := flat.SetValue(w.def.DefaultValue, name, func(any) any { return value }); err != nil {
			return fmt.Errorf("attributes: default for %q: %w", name, err)
		}
	}
	return nil
}

func scalarConstraint(schema *openapi3.Schema, required bool) model.Constraint {
	c := model.Constraint{Required: required, Pattern: schema.Pattern}
	if schema.MinLength > 0 {
		v := int(schema.MinLength)
		c.MinLength = &v
	}
	if schema.MaxLength != nil {
		v := int(*schema.MaxLength)
		c.MaxLength = &v
	}
	if schema.Min != nil {
		c.Min = formatNumber(*schema.Min)
	}
	if schema.Max != nil {
		c.Max = formatNumber(*schema.Max)
	}
	if schema.MultipleOf != nil {
		c.Step = formatNumber(*schema.MultipleOf)
	} else if schemaType(schema) == "integer" && (c.Min != "" || c.Max != "") {
		c.Step = "1"
	}
	return c
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		if len(schema.Properties) > 0 {
			return "object"
		}
		return ""
	}
	values := schema.Type.Slice()
	for _, v := range values {
		if v != "null" {
			return strings.ToLower(v)
		}
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
