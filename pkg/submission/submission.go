// Package submission parses one form submission: it decodes the reserved
// `__state__` and `__intent__` entries, lets the resolved intent mutate the
// value tree, runs the caller's validator and settles the outcome into a
// serializable model.Result.
package submission

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/intent"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/statecodec"
)

// ErrResolve wraps failures (errors or panics) raised by a validator.
var ErrResolve = errors.New("submission: validator failed")

// Status is the settled state of a submission.
type Status string

const (
	// StatusPending marks an intent-driven submission; the form stays open.
	StatusPending Status = "pending"
	// StatusRejected marks a submission with errors or undecided checks.
	StatusRejected Status = "rejected"
	// StatusAccepted marks a submission that produced a value.
	StatusAccepted Status = "accepted"
)

// Context is handed to the validator.
type Context struct {
	// Payload is the value tree after intent preprocessing.
	Payload map[string]any
	// Intent is the raw intent marker, empty for a plain submit.
	Intent string
	// Fields lists the submitted names.
	Fields []string

	ctx     context.Context
	handler intent.Handler
}

// Context returns the context bounding the validation pass. It is
// context.Background for synchronous parses.
func (c Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// ShouldValidate reports whether the validator should evaluate name. Fields
// outside the intent's scope should be reported with model.Skipped.
func (c Context) ShouldValidate(name string) bool {
	if c.handler == nil {
		return true
	}
	return c.handler.ShouldValidate(name)
}

// Resolver validates the payload and returns the typed value. A non-nil
// error is an infrastructure failure, not a validation result.
type Resolver[T any] func(ctx Context) (T, model.ErrorMap, error)

// Options configure Parse.
type Options[T any] struct {
	Resolve Resolver[T]
	// Intents defaults to intent.Default().
	Intents *intent.Registry
	// Codec decodes the `__state__` entry; defaults to statecodec.JSON().
	Codec statecodec.Codec
}

// Outcome is the part of a submission the store consumes.
type Outcome interface {
	Status() Status
	// Inconclusive reports whether a check was deferred to another tier.
	Inconclusive() bool
	Report(opts ...ReportOption) model.Result
}

// Submission is a parsed, validated submission.
type Submission[T any] struct {
	status  Status
	intent  string
	payload map[string]any
	value   T
	errs    model.ErrorMap
	state   model.ResultState
}

var _ Outcome = (*Submission[any])(nil)

// Parse runs the submission lifecycle over entries.
func Parse[T any](entries flat.Entries, opts Options[T]) (*Submission[T], error) {
	return parse(context.Background(), entries, opts)
}

func parse[T any](ctx context.Context, entries flat.Entries, opts Options[T]) (*Submission[T], error) {
	registry := opts.Intents
	if registry == nil {
		registry = intent.Default()
	}
	codec := opts.Codec
	if codec == nil {
		codec = statecodec.JSON()
	}

	rawIntent := entries.GetString(model.IntentField)
	prev, err := codec.Decode(entries.GetString(model.StateField))
	if err != nil {
		return nil, fmt.Errorf("submission: decode state: %w", err)
	}

	data, err := flat.Resolve(entries, model.IntentField, model.StateField)
	if err != nil {
		return nil, fmt.Errorf("submission: resolve entries: %w", err)
	}
	handler, err := registry.Resolve(rawIntent, data)
	if err != nil {
		return nil, err
	}
	if err := handler.Preprocess(data, prev.Clone()); err != nil {
		return nil, err
	}

	vctx := Context{
		Payload: data,
		Intent:  rawIntent,
		Fields:  entries.Without(model.IntentField, model.StateField).Names(),
		ctx:     ctx,
		handler: handler,
	}
	value, errs, err := runResolver(opts.Resolve, vctx)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = model.ErrorMap{}
	}

	next := prev.Clone()
	handler.Update(&next, intent.Outcome{Fields: vctx.Fields, Error: errs})

	sub := &Submission[T]{
		intent:  rawIntent,
		payload: data,
		errs:    errs,
		state:   next,
	}
	switch {
	case rawIntent != "":
		sub.status = StatusPending
	case errs.HasMessages() || errs.HasDeferred():
		sub.status = StatusRejected
	default:
		sub.status = StatusAccepted
		sub.value = value
	}
	return sub, nil
}

func runResolver[T any](resolve Resolver[T], ctx Context) (value T, errs model.ErrorMap, err error) {
	if resolve == nil {
		return value, model.ErrorMap{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrResolve, r)
		}
	}()
	value, errs, err = resolve(ctx)
	if err != nil {
		return value, nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	return value, errs, nil
}

// Status returns the settled status.
func (s *Submission[T]) Status() Status { return s.status }

// Value returns the validated value; ok is false unless accepted.
func (s *Submission[T]) Value() (T, bool) {
	return s.value, s.status == StatusAccepted
}

// Payload returns the value tree after intent preprocessing.
func (s *Submission[T]) Payload() map[string]any { return s.payload }

// Errors returns the raw validator output, markers included.
func (s *Submission[T]) Errors() model.ErrorMap { return s.errs }

// State returns the reconciled state.
func (s *Submission[T]) State() model.ResultState { return s.state.Clone() }

// Inconclusive reports whether any check was deferred, whatever the status.
// Such a submission must be settled by another tier.
func (s *Submission[T]) Inconclusive() bool {
	return s.errs.HasDeferred()
}

// ReportOption configures Report.
type ReportOption func(*reportConfig)

type reportConfig struct {
	resetForm bool
}

// WithResetForm discards the submitted value and returns the form to its
// defaults.
func WithResetForm() ReportOption {
	return func(cfg *reportConfig) {
		cfg.resetForm = true
	}
}

// Report renders the submission as a model.Result.
func (s *Submission[T]) Report(opts ...ReportOption) model.Result {
	var cfg reportConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	result := model.Result{
		Status: s.wireStatus(),
		Intent: s.intent,
		State:  s.state.Clone(),
	}
	if cfg.resetForm {
		result.State = model.NewResultState()
		return result
	}

	result.InitialValue = flat.Flatten(s.payload)
	result.Error = map[string][]string{}
	for name, msgs := range s.errs {
		if s.status == StatusPending && !formpath.Covers(s.state.Validated, name) {
			continue
		}
		if texts := msgs.Texts(); len(texts) > 0 {
			result.Error[name] = texts
			continue
		}
		if msgs.HasSkipped() {
			result.Skipped = append(result.Skipped, name)
		}
	}
	slices.Sort(result.Skipped)
	return result
}

func (s *Submission[T]) wireStatus() model.Status {
	switch s.status {
	case StatusAccepted:
		return model.StatusSuccess
	case StatusRejected:
		return model.StatusError
	default:
		return ""
	}
}

