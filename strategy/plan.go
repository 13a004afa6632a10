package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
)

// DefaultPlanPrompt is the planning-phase instruction used when Options.PlanPrompt is empty.
const DefaultPlanPrompt = `Break the task into an ordered plan. Respond with a JSON object of the form ` +
	`{"steps":[{"id":"1","description":"...","tool":"optional tool name","dependsOn":["ids"]}]} ` +
	`and nothing else.`

// Plan is the plan-then-execute strategy. Phase one makes a single planning
// inference call and parses a structured step list (fatal on failure).
// Phase two repeatedly selects the first pending step whose dependencies
// are all completed and executes it with its own inference call, advancing
// step statuses on a copy-on-write plan list embedded in the snapshot.
type Plan struct {
	base
}

// NewPlan builds a Plan strategy over the given model.
func NewPlan(m model.Model, optFns ...func(o *Options)) *Plan {
	p := &Plan{base: newBase("plan", m, optFns)}
	if p.opts.PlanPrompt == "" {
		p.opts.PlanPrompt = DefaultPlanPrompt
	}
	return p
}

// Name implements Strategy.
func (p *Plan) Name() string { return p.name }

// Execute implements Strategy.
func (p *Plan) Execute(ctx context.Context, req Request) (*Turn, error) {
	return p.run(ctx, req, nil)
}

// Stream implements Strategy.
func (p *Plan) Stream(ctx context.Context, req Request) *Run {
	return newRun(ctx, p.opts.EventBufferSize, func(runCtx context.Context, em *emitter) (*Turn, error) {
		return p.run(runCtx, req, em)
	})
}

func (p *Plan) run(ctx context.Context, req Request, em *emitter) (*Turn, error) {
	st := p.initialState(req)

	if err := checkpointCanceled(ctx); err != nil {
		return p.finish(em, nil, err)
	}

	// Phase 1: planning, exactly once.
	planMsgs := append(st.Messages(), core.NewUserMessage(p.opts.PlanPrompt))
	planRes, err := p.infer(ctx, em, planMsgs)
	if err != nil {
		return p.finish(em, nil, err)
	}
	usage := planRes.Usage

	steps, err := parsePlan(planRes)
	if err != nil {
		return p.finish(em, nil, err)
	}
	if p.opts.MaxPlanSteps > 0 && len(steps) > p.opts.MaxPlanSteps {
		steps = steps[:p.opts.MaxPlanSteps]
	}

	st = st.WithMessages(planRes.Messages...).WithPlan(steps)
	p.planCreated(em, st.Step(), steps)

	// Phase 2: ordered execution.
	last := planRes
	executed := 0
	for {
		if err := checkpointCanceled(ctx); err != nil {
			return p.finish(em, nil, err)
		}

		idx := nextReadyStep(steps)
		if idx < 0 {
			break
		}

		steps = withStatus(steps, idx, core.StepInProgress)
		st = st.WithPlan(steps).WithStep(st.Step() + 1)
		current := steps[idx]
		p.planStepStart(em, st.Step(), current)

		res, stepErr := p.executeStep(ctx, em, st, current)
		if stepErr != nil {
			steps = withStatus(steps, idx, core.StepFailed)
			st = st.WithPlan(steps)
			p.planStepEnd(em, st.Step(), steps[idx])
			if fn := p.opts.Hooks.OnReplan; fn != nil {
				fn(steps[idx], stepErr)
			}
			// No automatic recovery: the failure re-raises to the caller
			// (OnError may still substitute a final result).
			return p.finish(em, nil, stepErr)
		}

		last = res
		executed++
		usage = usage.Add(res.Usage)
		st = st.WithMessages(res.Messages...)

		if len(res.ToolCalls) > 0 && len(p.opts.Tools) > 0 {
			p.action(em, st.Step(), res.ToolCalls)
			st, _ = p.executeCalls(ctx, em, st.Step(), res.ToolCalls, st)
		}

		steps = withStatus(steps, idx, core.StepCompleted)
		st = st.WithPlan(steps)
		p.planStepEnd(em, st.Step(), steps[idx])
		p.saveCheckpoint(req.SessionID, st)

		if p.shouldStop(st, res) {
			break
		}
	}

	// The final result is that of the last executed step, or the planning
	// call's result when no step ever ran.
	return p.finish(em, &Turn{Result: last, State: st, Usage: usage, Steps: executed}, nil)
}

// executeStep runs one inference call naming the step and its tool.
func (p *Plan) executeStep(ctx context.Context, em *emitter, st *core.State, step core.PlanStep) (*model.Result, error) {
	prompt := fmt.Sprintf("Execute plan step %s: %s", step.ID, step.Description)
	if step.Tool != "" {
		prompt += fmt.Sprintf(" (use the %s tool)", step.Tool)
	}
	return p.infer(ctx, em, append(st.Messages(), core.NewUserMessage(prompt)))
}

// nextReadyStep returns the index of the first pending step whose every
// dependency is completed, or -1 when none qualifies (all remaining steps
// blocked or none pending).
func nextReadyStep(steps []core.PlanStep) int {
	completed := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Status == core.StepCompleted {
			completed[s.ID] = true
		}
	}
	for i, s := range steps {
		if s.Status != core.StepPending {
			continue
		}
		ready := true
		for _, dep := range s.DependsOn {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			return i
		}
	}
	return -1
}

// withStatus returns a fresh plan list with one step's status advanced.
func withStatus(steps []core.PlanStep, idx int, status core.StepStatus) []core.PlanStep {
	out := core.ClonePlan(steps)
	out[idx].Status = status
	return out
}

// planPayload mirrors the JSON shape requested from the model.
type planPayload struct {
	Steps []planStepPayload `json:"steps"`
}

type planStepPayload struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Tool        string   `json:"tool,omitempty"`
	DependsOn   []string `json:"dependsOn,omitempty"`
}

// parsePlan extracts the step list from the planning result: a structured
// payload when the provider supplies one, otherwise the first
// brace-delimited JSON object found in the response text. Failure is fatal
// for the run.
func parsePlan(res *model.Result) ([]core.PlanStep, error) {
	raw := res.Structured
	if len(raw) == 0 {
		obj, ok := extractJSONObject(res.Text)
		if !ok {
			return nil, &PlanParseError{Raw: res.Text, Err: errors.New("no JSON object found in response text")}
		}
		raw = []byte(obj)
	}

	var payload planPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &PlanParseError{Raw: string(raw), Err: err}
	}
	if len(payload.Steps) == 0 {
		return nil, &PlanParseError{Raw: string(raw), Err: errors.New("plan contains no steps")}
	}

	steps := make([]core.PlanStep, 0, len(payload.Steps))
	for i, s := range payload.Steps {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		steps = append(steps, core.PlanStep{
			ID:          id,
			Description: s.Description,
			Tool:        s.Tool,
			DependsOn:   s.DependsOn,
			Status:      core.StepPending,
		})
	}
	return steps, nil
}

// extractJSONObject returns the first balanced brace-delimited object in
// text, tolerating braces inside JSON strings.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
