package attributes

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// Violation is one problem found in a definition.
type Violation struct {
	Name    string
	Message string
}

// Lint reports constraints that can never be satisfied or that name fields
// in a non-canonical form. Violations are sorted by name.
func (d Definition) Lint() []Violation {
	var out []Violation
	for name, c := range d.Constraint {
		out = append(out, lintConstraint(name, c)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Message < out[j].Message
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func lintConstraint(name string, c model.Constraint) []Violation {
	var out []Violation
	add := func(format string, args ...any) {
		out = append(out, Violation{Name: name, Message: fmt.Sprintf(format, args...)})
	}

	if canonical := formpath.Format(formpath.Parse(name)); canonical != name {
		add("name is not canonical, use %q", canonical)
	}
	if c.MinLength != nil && *c.MinLength < 0 {
		add("minLength must not be negative")
	}
	if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
		add("minLength %d exceeds maxLength %d", *c.MinLength, *c.MaxLength)
	}
	if min, max, ok := numbers(c.Min, c.Max); ok && min > max {
		add("min %s exceeds max %s", c.Min, c.Max)
	}
	if c.Step != "" {
		if step, err := strconv.ParseFloat(c.Step, 64); err != nil || step <= 0 {
			add("step %q must be a positive number", c.Step)
		}
	}
	if c.Pattern != "" {
		if _, err := regexp.Compile("^(?:" + c.Pattern + ")$"); err != nil {
			add("pattern does not compile: %v", err)
		}
	}
	return out
}

func numbers(a, b string) (float64, float64, bool) {
	if a == "" || b == "" {
		return 0, 0, false
	}
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return x, y, true
}
