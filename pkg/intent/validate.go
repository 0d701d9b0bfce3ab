package intent

import (
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// ValidateDefinition asks for a single field (and its descendants) to be
// validated. The payload is the bare field name.
var ValidateDefinition = Definition[string]{
	Name:   "validate",
	Encode: func(name string) (string, error) { return name, nil },
	Decode: func(raw string) (string, error) { return raw, nil },
	NewHandler: func(_ map[string]any, name string) Handler {
		return validateHandler{name: name}
	},
}

// Validate returns the serialized validate intent for name.
func Validate(name string) string {
	raw, _ := ValidateDefinition.Serialize(name)
	return raw
}

type validateHandler struct {
	name string
}

func (validateHandler) Preprocess(map[string]any, model.ResultState) error { return nil }

func (h validateHandler) ShouldValidate(name string) bool {
	return formpath.IsPrefix(name, h.name)
}

func (h validateHandler) Update(state *model.ResultState, _ Outcome) {
	state.Validated[h.name] = true
}
