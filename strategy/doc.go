// Package strategy implements the step-cycle state machines that drive an
// agent run: a simple tool loop, a reason-act-observe loop and a
// plan-then-execute machine. Each strategy repeatedly calls the model
// collaborator, optionally executes proposed tool calls through the
// dependency scheduler, fires lifecycle hooks and decides when to stop.
//
// Every strategy exposes a single-shot Execute that awaits completion and a
// Stream variant producing a live tagged-event sequence plus a deferred
// final result and an Abort handle. Cancellation is cooperative: aborting
// cancels the run's context, which is observed at iteration and
// stream-event boundaries.
package strategy
