package strategy

import (
	"context"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
)

// Default prompts for the react strategy's two phases.
const (
	DefaultReasonPrompt = "Think step by step about the current situation and what to do next. Respond with your reasoning only."
	DefaultActPrompt    = "Based on your reasoning, take the next action now. Use a tool if needed, otherwise answer directly."
)

// React is the reason-act-observe strategy. Each cycle is two inference
// calls: a reason phase whose response text is appended to the reasoning
// trace, then an act phase whose response may carry tool-call proposals.
// Hooks fire in strict order per cycle: step-start, reasoning, action (if
// proposals), observation (if tool results), step-end, stop-condition.
type React struct {
	base
}

// NewReact builds a React strategy over the given model.
func NewReact(m model.Model, optFns ...func(o *Options)) *React {
	r := &React{base: newBase("react", m, optFns)}
	if r.opts.ReasonPrompt == "" {
		r.opts.ReasonPrompt = DefaultReasonPrompt
	}
	if r.opts.ActPrompt == "" {
		r.opts.ActPrompt = DefaultActPrompt
	}
	return r
}

// Name implements Strategy.
func (r *React) Name() string { return r.name }

// Execute implements Strategy.
func (r *React) Execute(ctx context.Context, req Request) (*Turn, error) {
	return r.run(ctx, req, nil)
}

// Stream implements Strategy.
func (r *React) Stream(ctx context.Context, req Request) *Run {
	return newRun(ctx, r.opts.EventBufferSize, func(runCtx context.Context, em *emitter) (*Turn, error) {
		return r.run(runCtx, req, em)
	})
}

func (r *React) run(ctx context.Context, req Request, em *emitter) (*Turn, error) {
	st := r.initialState(req)

	var (
		last  *model.Result
		usage model.Usage
		steps int
	)

	for cycle := 0; ; cycle++ {
		if err := checkpointCanceled(ctx); err != nil {
			return r.finish(em, nil, err)
		}
		if r.opts.MaxIterations > 0 && cycle >= r.opts.MaxIterations {
			break
		}

		step := st.Step() + 1
		st = st.WithStep(step)
		steps++

		r.stepStart(em, step, st)

		// Reason phase: the trace records the thought; the prompt itself
		// is not merged into the history.
		reasonMsgs := append(st.Messages(), core.NewUserMessage(r.opts.ReasonPrompt))
		thought, err := r.infer(ctx, em, reasonMsgs)
		if err != nil {
			return r.finish(em, nil, err)
		}
		usage = usage.Add(thought.Usage)
		st = st.WithReasoning(thought.Text)
		r.reasoning(em, step, thought.Text)

		// Act phase.
		actMsgs := append(st.Messages(), core.NewUserMessage(r.opts.ActPrompt))
		res, err := r.infer(ctx, em, actMsgs)
		if err != nil {
			return r.finish(em, nil, err)
		}
		last = res
		usage = usage.Add(res.Usage)
		st = st.WithMessages(res.Messages...)

		executed := false
		if len(res.ToolCalls) > 0 {
			r.action(em, step, res.ToolCalls)
			if len(r.opts.Tools) > 0 {
				st, _ = r.executeCalls(ctx, em, step, res.ToolCalls, st)
				executed = true
			}
		}
		if len(res.ToolExecutions) > 0 {
			// Proposals the inference layer already resolved arrive as
			// observations without engine-side scheduling.
			results := make([]core.CallResult, 0, len(res.ToolExecutions))
			for _, te := range res.ToolExecutions {
				cr := core.CallResult{Call: te.Call, Value: te.Value}
				if te.Err != "" {
					cr.Err = &toolExecutionError{msg: te.Err}
				}
				results = append(results, cr)
			}
			r.observation(em, step, results)
		}

		r.stepEnd(em, step, st, res)
		r.saveCheckpoint(req.SessionID, st)

		if r.shouldStop(st, res) {
			break
		}
		if len(res.ToolCalls) == 0 || !executed {
			break
		}
	}

	if last == nil {
		return r.finish(em, nil, ErrNoResult)
	}
	return r.finish(em, &Turn{Result: last, State: st, Usage: usage, Steps: steps}, nil)
}

// toolExecutionError adapts a provider-reported tool failure string into an
// error for CallResult.
type toolExecutionError struct{ msg string }

func (e *toolExecutionError) Error() string { return e.msg }
