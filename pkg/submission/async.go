package submission

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/flat"
)

// Pending is a submission being parsed on another goroutine.
type Pending[T any] struct {
	done chan struct{}
	sub  *Submission[T]
	err  error
}

// ParseAsync runs Parse on a new goroutine. ctx is exposed to the validator
// through Context.Context.
func ParseAsync[T any](ctx context.Context, entries flat.Entries, opts Options[T]) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.sub, p.err = parse(ctx, entries, opts)
	}()
	return p
}

// Done is closed once parsing finished.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Wait blocks until parsing finished or ctx is done.
func (p *Pending[T]) Wait(ctx context.Context) (*Submission[T], error) {
	select {
	case <-p.done:
		return p.sub, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
