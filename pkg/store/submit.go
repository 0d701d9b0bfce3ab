package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-formstate/pkg/dom"
	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// ValidateFunc validates the form data of one submit. Returning an error (or
// panicking) means no client-side validation happened and the submit goes on
// to the server.
type ValidateFunc func(ctx context.Context, form dom.Form, entries flat.Entries) (submission.Outcome, error)

// SubmitOptions configure Submit and SubmitAsync.
type SubmitOptions struct {
	OnValidate ValidateFunc
	Update     []UpdateOption
}

// Submitted describes how a submit ended on the client.
type Submitted struct {
	// Outcome is nil when no validation ran.
	Outcome submission.Outcome
	// Applied is true when the report reached the snapshot and the native
	// submit was prevented.
	Applied bool
}

// Submit validates a submit event synchronously. Accepted or inconclusive
// outcomes leave the native submit alone; anything else prevents it and
// applies the report.
func (f *Form) Submit(e *dom.Event, opts SubmitOptions) (Submitted, error) {
	entries, err := f.submitEntries(e)
	if err != nil {
		return Submitted{}, err
	}
	if opts.OnValidate == nil {
		return Submitted{}, nil
	}

	seq := f.nextSeq()
	outcome := f.validate(context.Background(), opts.OnValidate, e.Form, entries)
	if outcome == nil {
		return Submitted{}, nil
	}
	if settlesOnServer(outcome) {
		return Submitted{Outcome: outcome}, nil
	}
	e.PreventDefault()
	return Submitted{Outcome: outcome, Applied: f.apply(seq, outcome.Report(), opts.Update...)}, nil
}

// PendingSubmit is a submit validated on another goroutine.
type PendingSubmit struct {
	done   chan struct{}
	result Submitted
}

// Done is closed once validation finished.
func (p *PendingSubmit) Done() <-chan struct{} { return p.done }

// Wait blocks until validation finished or ctx is done.
func (p *PendingSubmit) Wait(ctx context.Context) (Submitted, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Submitted{}, ctx.Err()
	}
}

// SubmitAsync prevents the native submit and validates on a new goroutine.
// When a later pass reaches the snapshot first, this result is discarded.
// Accepted and inconclusive outcomes are returned for the caller to submit.
func (f *Form) SubmitAsync(ctx context.Context, e *dom.Event, opts SubmitOptions) (*PendingSubmit, error) {
	entries, err := f.submitEntries(e)
	if err != nil {
		return nil, err
	}
	e.PreventDefault()

	seq := f.nextSeq()
	p := &PendingSubmit{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		if opts.OnValidate == nil {
			return
		}
		outcome := f.validate(ctx, opts.OnValidate, e.Form, entries)
		if outcome == nil {
			return
		}
		p.result.Outcome = outcome
		if settlesOnServer(outcome) || ctx.Err() != nil {
			return
		}
		p.result.Applied = f.apply(seq, outcome.Report(), opts.Update...)
	}()
	return p, nil
}

func settlesOnServer(outcome submission.Outcome) bool {
	return outcome.Status() == submission.StatusAccepted || outcome.Inconclusive()
}

// submitEntries checks the event and collects the form data, appending the
// encoded state when the form renders none.
func (f *Form) submitEntries(e *dom.Event) (flat.Entries, error) {
	if e == nil || e.Type != dom.EventSubmit || !f.isLive(e.Form) {
		return nil, ErrFormMismatch
	}
	entries := e.Form.Entries(e.Submitter)
	if _, ok := entries.Get(model.StateField); ok {
		return entries, nil
	}
	state := f.Snapshot().State
	encoded, err := f.registry.codec.Encode(model.ResultState{
		Validated: state.Validated,
		ListKeys:  state.ListKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("store: encode state of %q: %w", f.id, err)
	}
	return entries.Append(model.StateField, encoded), nil
}

func (f *Form) validate(ctx context.Context, fn ValidateFunc, form dom.Form, entries flat.Entries) (outcome submission.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			f.registry.logger.Warn("validator panicked; submitting without client validation",
				slog.String("form", f.id), slog.Any("panic", r))
			outcome = nil
		}
	}()
	outcome, err := fn(ctx, form, entries)
	if err != nil {
		f.registry.logger.Warn("validator failed; submitting without client validation",
			slog.String("form", f.id), slog.Any("error", err))
		return nil
	}
	return outcome
}
