package strategy

import (
	"context"
	"sync"

	"github.com/stridekit/stride/core"
)

// Run is the handle of a streaming strategy execution: a live tagged-event
// sequence multiplexing engine-level and inference-level records in
// completion order, a deferred final result, and a cooperative Abort.
type Run struct {
	events chan core.Event
	done   chan struct{}

	turn *Turn
	err  error

	cancel    context.CancelFunc
	abortOnce sync.Once
}

// Events returns the live event channel. It is closed when the run settles.
// Consumers should drain it; emission applies backpressure beyond the
// configured buffer.
func (r *Run) Events() <-chan core.Event { return r.events }

// Wait blocks until the run settles and returns the deferred final result.
// After an Abort it returns ErrCanceled (unless the run had already
// completed).
func (r *Run) Wait() (*Turn, error) {
	<-r.done
	return r.turn, r.err
}

// Abort requests cooperative cancellation: the run context is canceled,
// which the inference layer honors for in-flight calls and the state
// machine observes at its next checkpoint. Abort never interrupts an
// already-running tool call. Safe to call multiple times.
func (r *Run) Abort() {
	r.abortOnce.Do(r.cancel)
}

// emitter feeds the run's single internal event channel. Both producers
// (strategy hook points and the inference passthrough) go through emit,
// which yields ordered multiplexing for free since the machine itself is
// single-threaded.
type emitter struct {
	ctx context.Context
	ch  chan<- core.Event
}

// emit delivers an event unless the run context is done.
func (e *emitter) emit(ev core.Event) error {
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.ch <- ev:
		return nil
	}
}

// newRun launches fn on its own goroutine and wires the streaming handle.
func newRun(parent context.Context, bufSize int, fn func(ctx context.Context, em *emitter) (*Turn, error)) *Run {
	ctx, cancel := context.WithCancel(parent)
	r := &Run{
		events: make(chan core.Event, bufSize),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	em := &emitter{ctx: ctx, ch: r.events}

	go func() {
		defer close(r.done)
		defer close(r.events)
		r.turn, r.err = fn(ctx, em)
	}()

	return r
}
