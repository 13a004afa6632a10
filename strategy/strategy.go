package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stridekit/stride/checkpoint"
	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/logging"
	"github.com/stridekit/stride/model"
	"github.com/stridekit/stride/schedule"
	"github.com/stridekit/stride/tool"
)

// Request carries the inputs of one strategy run.
type Request struct {
	// SessionID keys checkpoint saves. Empty disables checkpointing even
	// when a store is configured.
	SessionID string

	// Input is the user message starting (or continuing) the run. When
	// non-empty it is appended to the state before the first step.
	Input string

	// State is the prior execution-state snapshot to continue from. Nil
	// starts a fresh run.
	State *core.State
}

// Turn is the final outcome of a strategy run: the last inference result
// plus the updated execution-state snapshot.
type Turn struct {
	Result *model.Result
	State  *core.State

	// Usage accumulates token counters across every inference call of the run.
	Usage model.Usage

	// Steps is the number of steps/cycles executed.
	Steps int
}

// StopCondition is an injected predicate evaluated after each step against
// the current snapshot and the step's inference result. Returning true ends
// the run.
type StopCondition func(st *core.State, res *model.Result) bool

// Hooks are optional lifecycle callbacks fired synchronously at the same
// points the streaming variant emits engine-level events. Nil hooks are
// skipped. Hooks must not block; they run on the strategy goroutine.
type Hooks struct {
	OnStepStart     func(step int, st *core.State)
	OnStepEnd       func(step int, st *core.State, res *model.Result)
	OnReasoning     func(step int, thought string)
	OnAction        func(step int, calls []core.ToolCall)
	OnObservation   func(step int, results []core.CallResult)
	OnPlanCreated   func(steps []core.PlanStep)
	OnPlanStepStart func(step core.PlanStep)
	OnPlanStepEnd   func(step core.PlanStep)

	// OnReplan is the extension point invoked when a plan step fails. It
	// performs no built-in retry; the failure still aborts the run unless
	// OnError supplies a substitute result.
	OnReplan func(step core.PlanStep, err error)

	// OnComplete fires exactly once with the final turn of a successful run.
	OnComplete func(turn *Turn)

	// OnError fires on a strategy-level failure. Returning a non-nil turn
	// supplies a substitute final result and the run completes gracefully;
	// returning nil lets the failure propagate to the caller.
	OnError func(err error) *Turn
}

// Options configures a strategy. Zero values are safe defaults.
type Options struct {
	// MaxIterations caps loop/react cycles. 0 means unbounded.
	MaxIterations int

	// StopCondition optionally ends the run early.
	StopCondition StopCondition

	// Tools enables engine-side execution of model-proposed tool calls via
	// the dependency scheduler. Without a registry, pending proposals end
	// the run and are surfaced on the final result.
	Tools map[string]tool.Tool

	// Capabilities overrides/extends the scheduling constraints declared by
	// the tools themselves (by tool name).
	Capabilities map[string]core.Capability

	// Hooks are the lifecycle callbacks.
	Hooks Hooks

	// Checkpoints, when set together with Request.SessionID, receives a
	// serialized snapshot after each completed step. Saves are detached
	// from the hot path; failures are logged, never fatal.
	Checkpoints checkpoint.Store

	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// EventBufferSize sets the streaming channel buffer. Defaults to 64.
	EventBufferSize int

	// ReasonPrompt and ActPrompt customize the react strategy's two phases.
	ReasonPrompt string
	ActPrompt    string

	// PlanPrompt customizes the plan strategy's planning call and
	// MaxPlanSteps truncates oversized parsed plans (default 20).
	PlanPrompt   string
	MaxPlanSteps int
}

// Strategy is a step-cycle state machine exposed to callers.
type Strategy interface {
	// Name identifies the strategy ("loop", "react", "plan").
	Name() string

	// Execute runs the machine to completion.
	Execute(ctx context.Context, req Request) (*Turn, error)

	// Stream runs the machine while emitting a live tagged-event sequence.
	// The returned Run carries the event channel, the deferred final
	// result (Wait) and the Abort handle.
	Stream(ctx context.Context, req Request) *Run
}

// base bundles the machinery shared by all three strategies: inference
// dispatch (single-shot vs. streaming), scheduler-backed tool execution,
// hook/event emission, checkpointing and error/completion handling.
type base struct {
	name  string
	model model.Model
	opts  Options
}

func newBase(name string, m model.Model, optFns []func(o *Options)) base {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		EventBufferSize: 64,
		MaxPlanSteps:    20,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return base{name: name, model: m, opts: opts}
}

// initialState seeds the snapshot for a run.
func (b *base) initialState(req Request) *core.State {
	st := req.State
	if st == nil {
		st = core.NewState()
	}
	if req.Input != "" {
		st = st.WithMessages(core.NewUserMessage(req.Input))
	}
	return st
}

// checkpointCanceled reports the cooperative cancellation error when the run
// context is done. Called at iteration/cycle boundaries.
func checkpointCanceled(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrCanceled
	}
	return nil
}

// infer dispatches one inference call. With a nil emitter the single-shot
// variant is used; otherwise the streaming variant is consumed, each live
// record passed through as an inference-level event in arrival order, and
// the terminal result captured.
func (b *base) infer(ctx context.Context, em *emitter, messages []core.Message) (*model.Result, error) {
	if em == nil {
		res, err := b.model.Infer(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCanceled
			}
			return nil, err
		}
		return res, nil
	}

	eventCh, errCh := b.model.InferStream(ctx, messages)

	var result *model.Result
	for eventCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ErrCanceled
		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			if err := em.emit(core.NewInferenceEvent(ev)); err != nil {
				return nil, ErrCanceled
			}
			if ev.Result != nil {
				result = ev.Result
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil, ErrCanceled
				}
				return nil, err
			}
		}
	}
	if result == nil {
		return nil, ErrNoResult
	}
	return result, nil
}

// capabilities merges tool-declared constraints with explicit overrides.
func (b *base) capabilities() map[string]core.Capability {
	caps := tool.Capabilities(b.opts.Tools)
	for name, c := range b.opts.Capabilities {
		caps[name] = c
	}
	return caps
}

// executeCalls schedules and runs model-proposed tool calls, fires the
// observation hook/event and appends one tool message per result.
func (b *base) executeCalls(
	ctx context.Context,
	em *emitter,
	step int,
	calls []core.ToolCall,
	st *core.State,
) (*core.State, []core.CallResult) {
	groups := schedule.Schedule(calls, b.capabilities())
	results := schedule.Run(ctx, groups, schedule.RegistryExecutor(b.opts.Tools), func(o *schedule.ExecutorOptions) {
		o.Logger = b.opts.Logger
	})

	b.observation(em, step, results)

	for _, r := range results {
		content := fmt.Sprintf("%v", r.Value)
		if r.Failed() {
			content = r.Err.Error()
		}
		st = st.WithMessages(core.NewToolMessage(r.Call.ID, r.Call.Name, content))
	}
	return st, results
}

// saveCheckpoint persists the snapshot as a detached background task. The
// hot path never waits on it; failures are logged only.
func (b *base) saveCheckpoint(sessionID string, st *core.State) {
	if b.opts.Checkpoints == nil || sessionID == "" {
		return
	}
	logger := b.opts.Logger
	store := b.opts.Checkpoints
	go func() {
		data, err := json.Marshal(st)
		if err == nil {
			err = store.Save(context.Background(), sessionID, data)
		}
		if err != nil {
			logger.Warn("strategy.checkpoint.save_failed",
				"session_id", sessionID,
				"error", err.Error(),
			)
		}
	}()
}

// shouldStop evaluates the injected stop condition.
func (b *base) shouldStop(st *core.State, res *model.Result) bool {
	return b.opts.StopCondition != nil && b.opts.StopCondition(st, res)
}

// Hook + event emission helpers. Each fires the hook and, when streaming,
// emits the matching engine-level event.

func (b *base) stepStart(em *emitter, step int, st *core.State) {
	if fn := b.opts.Hooks.OnStepStart; fn != nil {
		fn(step, st)
	}
	b.emitEngine(em, core.NewEvent(core.EventStepStart, b.name, step))
}

func (b *base) stepEnd(em *emitter, step int, st *core.State, res *model.Result) {
	if fn := b.opts.Hooks.OnStepEnd; fn != nil {
		fn(step, st, res)
	}
	b.emitEngine(em, core.NewEvent(core.EventStepEnd, b.name, step))
}

func (b *base) reasoning(em *emitter, step int, thought string) {
	if fn := b.opts.Hooks.OnReasoning; fn != nil {
		fn(step, thought)
	}
	ev := core.NewEvent(core.EventReasoning, b.name, step)
	ev.Reasoning = thought
	b.emitEngine(em, ev)
}

func (b *base) action(em *emitter, step int, calls []core.ToolCall) {
	if fn := b.opts.Hooks.OnAction; fn != nil {
		fn(step, calls)
	}
	ev := core.NewEvent(core.EventAction, b.name, step)
	ev.Calls = calls
	b.emitEngine(em, ev)
}

func (b *base) observation(em *emitter, step int, results []core.CallResult) {
	if len(results) == 0 {
		return
	}
	if fn := b.opts.Hooks.OnObservation; fn != nil {
		fn(step, results)
	}
	ev := core.NewEvent(core.EventObservation, b.name, step)
	ev.Results = results
	b.emitEngine(em, ev)
}

func (b *base) planCreated(em *emitter, step int, steps []core.PlanStep) {
	if fn := b.opts.Hooks.OnPlanCreated; fn != nil {
		fn(core.ClonePlan(steps))
	}
	ev := core.NewEvent(core.EventPlanCreated, b.name, step)
	ev.Plan = core.ClonePlan(steps)
	b.emitEngine(em, ev)
}

func (b *base) planStepStart(em *emitter, step int, ps core.PlanStep) {
	if fn := b.opts.Hooks.OnPlanStepStart; fn != nil {
		fn(ps)
	}
	ev := core.NewEvent(core.EventPlanStepStart, b.name, step)
	ev.PlanStep = &ps
	b.emitEngine(em, ev)
}

func (b *base) planStepEnd(em *emitter, step int, ps core.PlanStep) {
	if fn := b.opts.Hooks.OnPlanStepEnd; fn != nil {
		fn(ps)
	}
	ev := core.NewEvent(core.EventPlanStepEnd, b.name, step)
	ev.PlanStep = &ps
	b.emitEngine(em, ev)
}

func (b *base) emitEngine(em *emitter, ev core.Event) {
	if em == nil {
		return
	}
	// Emission failure means the run is being torn down; the machine
	// notices at its next cancellation checkpoint.
	_ = em.emit(ev)
}

// finish routes the terminal outcome through the completion/error hooks.
// A strategy-level failure consults OnError, which may supply a substitute
// final turn for graceful recovery.
func (b *base) finish(em *emitter, turn *Turn, err error) (*Turn, error) {
	if err != nil {
		b.opts.Logger.Error("strategy.run.failed", "strategy", b.name, "error", err.Error())
		if em != nil {
			ev := core.NewEvent(core.EventError, b.name, 0)
			ev.Err = err
			_ = em.emit(ev)
		}
		if fn := b.opts.Hooks.OnError; fn != nil {
			if substitute := fn(err); substitute != nil {
				return b.finish(em, substitute, nil)
			}
		}
		return nil, err
	}

	if fn := b.opts.Hooks.OnComplete; fn != nil {
		fn(turn)
	}
	return turn, nil
}
