package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Status summarises how a submission ended. Intent-driven submissions leave
// it empty because they never settle the form.
type Status string

const (
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// Result is the serializable outcome of one submission. It is applied
// locally by the store or sent back from a server and applied after a page
// round trip, so it carries no functions and no file values.
type Result struct {
	Status Status `json:"status,omitempty"`
	Intent string `json:"intent,omitempty"`
	// InitialValue is flat. A nil map encodes as null and asks the form to
	// reset itself.
	InitialValue map[string]any      `json:"initialValue"`
	Error        map[string][]string `json:"error,omitempty"`
	// Skipped lists fields whose checks did not run; their previous errors
	// are kept when the result is applied.
	Skipped []string    `json:"skipped,omitempty"`
	State   ResultState `json:"state"`
}

// ResetResult returns the result that clears the form back to its defaults.
func ResetResult() Result {
	return Result{State: NewResultState()}
}

// IsReset reports whether the result is a reset signal.
func (r Result) IsReset() bool {
	return r.InitialValue == nil
}

// Failed reports whether the result settles a rejected submission.
func (r Result) Failed() bool {
	return r.Status == StatusError
}

// Encode renders the result as JSON.
func (r Result) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("model: encode result: %w", err)
	}
	return data, nil
}

// DecodeResult parses a JSON result. Lists decoded as []any are normalised
// back to []string so the snapshot keeps a single value shape.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("model: decode result: %w", err)
	}
	if r.InitialValue != nil {
		r.InitialValue = NormalizeValues(r.InitialValue)
	}
	if r.State.Validated == nil {
		r.State.Validated = map[string]bool{}
	}
	if r.State.ListKeys == nil {
		r.State.ListKeys = map[string][]string{}
	}
	return r, nil
}

// NormalizeValues converts decoded list values into []string and drops
// values that are neither strings nor lists of strings.
func NormalizeValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		switch typed := value.(type) {
		case string:
			out[name] = typed
		case []string:
			out[name] = append([]string{}, typed...)
		case []any:
			list := make([]string, 0, len(typed))
			for _, item := range typed {
				if str, ok := item.(string); ok {
					list = append(list, str)
				}
			}
			out[name] = list
		}
	}
	return out
}
