package strategy

import (
	"context"

	"github.com/stridekit/stride/model"
)

// Loop is the simple tool-loop strategy: one inference call per iteration
// against the accumulated history. It stops when the result carries no
// pending tool-call proposals, the injected stop condition fires, or the
// iteration ceiling is reached (default: unbounded).
type Loop struct {
	base
}

// NewLoop builds a Loop strategy over the given model.
func NewLoop(m model.Model, optFns ...func(o *Options)) *Loop {
	return &Loop{base: newBase("loop", m, optFns)}
}

// Name implements Strategy.
func (l *Loop) Name() string { return l.name }

// Execute implements Strategy.
func (l *Loop) Execute(ctx context.Context, req Request) (*Turn, error) {
	return l.run(ctx, req, nil)
}

// Stream implements Strategy.
func (l *Loop) Stream(ctx context.Context, req Request) *Run {
	return newRun(ctx, l.opts.EventBufferSize, func(runCtx context.Context, em *emitter) (*Turn, error) {
		return l.run(runCtx, req, em)
	})
}

func (l *Loop) run(ctx context.Context, req Request, em *emitter) (*Turn, error) {
	st := l.initialState(req)

	var (
		last  *model.Result
		usage model.Usage
		steps int
	)

	for iteration := 0; ; iteration++ {
		if err := checkpointCanceled(ctx); err != nil {
			return l.finish(em, nil, err)
		}
		if l.opts.MaxIterations > 0 && iteration >= l.opts.MaxIterations {
			break
		}

		step := st.Step() + 1
		st = st.WithStep(step)
		steps++

		l.stepStart(em, step, st)
		l.opts.Logger.Debug("strategy.loop.step", "step", step)

		res, err := l.infer(ctx, em, st.Messages())
		if err != nil {
			return l.finish(em, nil, err)
		}
		last = res
		usage = usage.Add(res.Usage)
		st = st.WithMessages(res.Messages...)

		executed := false
		if len(res.ToolCalls) > 0 {
			l.action(em, step, res.ToolCalls)
			if len(l.opts.Tools) > 0 {
				st, _ = l.executeCalls(ctx, em, step, res.ToolCalls, st)
				executed = true
			}
		}

		l.stepEnd(em, step, st, res)
		l.saveCheckpoint(req.SessionID, st)

		if l.shouldStop(st, res) {
			break
		}
		// No proposals means the turn is complete; proposals we had no
		// registry to execute stay pending on the final result.
		if len(res.ToolCalls) == 0 || !executed {
			break
		}
	}

	if last == nil {
		return l.finish(em, nil, ErrNoResult)
	}
	return l.finish(em, &Turn{Result: last, State: st, Usage: usage, Steps: steps}, nil)
}
