// Package constraint validates a submitted value tree against the
// declarative field constraints of a form, producing the same messages for
// every tier that shares the constraint map.
package constraint

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// Messages used by Validate.
const (
	MsgRequired = "Required"
	MsgMultiple = "Only one value is allowed"
	MsgPattern  = "Does not match the required format"
)

// Lookup returns the constraint for name, falling back to the wildcard form
// (`tasks[].title` for `tasks[3].title`).
func Lookup(constraints map[string]model.Constraint, name string) (model.Constraint, bool) {
	if c, ok := constraints[name]; ok {
		return c, true
	}
	c, ok := constraints[formpath.WildcardOf(name)]
	return c, ok
}

// Validate checks every constrained field present in tree. Fields for which
// shouldValidate returns false receive a skipped marker. A nil
// shouldValidate validates everything.
func Validate(constraints map[string]model.Constraint, tree map[string]any, shouldValidate func(string) bool) model.ErrorMap {
	errs := model.ErrorMap{}
	keys := make([]string, 0, len(constraints))
	for key := range constraints {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		c := constraints[key]
		for _, name := range expand(tree, formpath.Parse(key), nil) {
			if shouldValidate != nil && !shouldValidate(name) {
				errs.Add(name, model.Skipped())
				continue
			}
			value, _ := flat.GetValue(tree, name)
			if msgs := check(c, value); len(msgs) > 0 {
				errs.Add(name, msgs...)
			}
		}
	}
	return errs
}

// Resolver adapts Validate to a submission resolver returning the payload
// as the value.
func Resolver(constraints map[string]model.Constraint) submission.Resolver[map[string]any] {
	return func(ctx submission.Context) (map[string]any, model.ErrorMap, error) {
		return ctx.Payload, Validate(constraints, ctx.Payload, ctx.ShouldValidate), nil
	}
}

// expand resolves wildcard segments against the lists present in tree.
func expand(tree map[string]any, segments []formpath.Segment, prefix []formpath.Segment) []string {
	for i, seg := range segments {
		if !seg.IsWildcard() {
			continue
		}
		head := append(append([]formpath.Segment{}, prefix...), segments[:i]...)
		list, _ := flat.GetValue(tree, formpath.Format(head))
		var names []string
		for idx := 0; idx < listLen(list); idx++ {
			item := append(append([]formpath.Segment{}, head...), formpath.Index(idx))
			names = append(names, expand(tree, segments[i+1:], item)...)
		}
		return names
	}
	full := append(append([]formpath.Segment{}, prefix...), segments...)
	return []string{formpath.Format(full)}
}

func listLen(value any) int {
	switch typed := value.(type) {
	case []any:
		return len(typed)
	case []string:
		return len(typed)
	default:
		return 0
	}
}

func check(c model.Constraint, value any) []model.Message {
	values := stringsOf(value)
	if len(values) == 0 {
		if c.Required {
			return []model.Message{model.Text(MsgRequired)}
		}
		return nil
	}
	if len(values) > 1 && !c.Multiple {
		return []model.Message{model.Text(MsgMultiple)}
	}

	var msgs []model.Message
	for _, v := range values {
		msgs = append(msgs, checkValue(c, v)...)
	}
	return msgs
}

func checkValue(c model.Constraint, v string) []model.Message {
	var msgs []model.Message
	length := utf8.RuneCountInString(v)
	if c.MinLength != nil && length < *c.MinLength {
		msgs = append(msgs, model.Text(fmt.Sprintf("Must be at least %d characters", *c.MinLength)))
	}
	if c.MaxLength != nil && length > *c.MaxLength {
		msgs = append(msgs, model.Text(fmt.Sprintf("Must be at most %d characters", *c.MaxLength)))
	}
	if c.Min != "" && compare(v, c.Min) < 0 {
		msgs = append(msgs, model.Text("Must be at least "+c.Min))
	}
	if c.Max != "" && compare(v, c.Max) > 0 {
		msgs = append(msgs, model.Text("Must be at most "+c.Max))
	}
	if c.Step != "" && !onStep(v, c.Min, c.Step) {
		msgs = append(msgs, model.Text("Must be a multiple of "+c.Step))
	}
	if c.Pattern != "" {
		if re, err := compilePattern(c.Pattern); err == nil && !re.MatchString(v) {
			msgs = append(msgs, model.Text(MsgPattern))
		}
	}
	return msgs
}

// compare orders numerically when both sides are numbers and lexically
// otherwise, which also orders ISO dates and times.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func onStep(v, base, step string) bool {
	s, err := strconv.ParseFloat(step, 64)
	if err != nil || s <= 0 {
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return true
	}
	origin := 0.0
	if b, err := strconv.ParseFloat(base, 64); err == nil {
		origin = b
	}
	q := (f - origin) / s
	return math.Abs(q-math.Round(q)) < 1e-9
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

func stringsOf(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case []string:
		return nonEmpty(typed)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return nonEmpty(out)
	case flat.File:
		if typed.Size() == 0 && typed.Filename() == "" {
			return nil
		}
		return []string{typed.Filename()}
	default:
		return nil
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
