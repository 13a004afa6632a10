package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
	"github.com/stridekit/stride/tool"
)

func planResult(raw string) *model.Result {
	r := textResult(raw)
	return r
}

func TestPlan_ExecutesStepsInDependencyOrder(t *testing.T) {
	// Step 2 is listed first but depends on step 1.
	planJSON := `{"steps":[
		{"id":"2","description":"write the report","dependsOn":["1"]},
		{"id":"1","description":"gather the data"}
	]}`
	m := &stubModel{script: []*model.Result{
		planResult(planJSON),
		textResult("data gathered"),
		textResult("report written"),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "make a report"})

	require.NoError(t, err)
	assert.Equal(t, 3, m.callCount())
	assert.Equal(t, 2, turn.Steps)
	assert.Equal(t, "report written", turn.Result.Text)

	// Dependency order: step 1 executed before step 2.
	step1Msgs := m.callMessages(1)
	step2Msgs := m.callMessages(2)
	assert.Contains(t, step1Msgs[len(step1Msgs)-1].Content, "step 1")
	assert.Contains(t, step2Msgs[len(step2Msgs)-1].Content, "step 2")

	for _, s := range turn.State.Plan() {
		assert.Equal(t, core.StepCompleted, s.Status)
	}
}

func TestPlan_StructuredPayloadPreferred(t *testing.T) {
	res := textResult("free-form prose without any JSON")
	res.Structured = json.RawMessage(`{"steps":[{"id":"1","description":"only step"}]}`)
	m := &stubModel{script: []*model.Result{
		res,
		textResult("step done"),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	assert.Equal(t, 1, turn.Steps)
	assert.Equal(t, "step done", turn.Result.Text)
}

func TestPlan_ExtractsJSONEmbeddedInProse(t *testing.T) {
	text := `Here is my plan: {"steps":[{"id":"1","description":"say {hello}"}]} Let me begin.`
	m := &stubModel{script: []*model.Result{
		planResult(text),
		textResult("said hello"),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	require.Len(t, turn.State.Plan(), 1)
	assert.Equal(t, "say {hello}", turn.State.Plan()[0].Description)
}

func TestPlan_ParseFailureIsFatal(t *testing.T) {
	m := &stubModel{script: []*model.Result{
		planResult("I cannot produce a plan right now."),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	assert.Nil(t, turn)
	var parseErr *PlanParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Raw, "cannot produce")
	// The planning call happened but no step ever ran.
	assert.Equal(t, 1, m.callCount())
}

func TestPlan_EmptyStepListIsFatal(t *testing.T) {
	m := &stubModel{script: []*model.Result{
		planResult(`{"steps":[]}`),
	}}
	p := NewPlan(m)

	_, err := p.Execute(context.Background(), Request{Input: "go"})

	var parseErr *PlanParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestPlan_TruncatesToMaxPlanSteps(t *testing.T) {
	planJSON := `{"steps":[
		{"id":"1","description":"a"},
		{"id":"2","description":"b"},
		{"id":"3","description":"c"},
		{"id":"4","description":"d"}
	]}`
	m := &stubModel{script: []*model.Result{planResult(planJSON)}}
	p := NewPlan(m, func(o *Options) {
		o.MaxPlanSteps = 2
	})

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	assert.Equal(t, 2, turn.Steps)
	assert.Len(t, turn.State.Plan(), 2)
}

func TestPlan_StepFailureMarksFailedAndAborts(t *testing.T) {
	boom := errors.New("step exploded")
	m := &stubModel{
		script: []*model.Result{
			planResult(`{"steps":[{"id":"1","description":"a"},{"id":"2","description":"b"}]}`),
		},
		errAt: map[int]error{2: boom},
	}

	var replanned core.PlanStep
	var replanErr error
	p := NewPlan(m, func(o *Options) {
		o.Hooks.OnReplan = func(step core.PlanStep, err error) {
			replanned = step
			replanErr = err
		}
	})

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	assert.Nil(t, turn)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "1", replanned.ID)
	assert.Equal(t, core.StepFailed, replanned.Status)
	assert.ErrorIs(t, replanErr, boom)
	// The second step never ran.
	assert.Equal(t, 2, m.callCount())
}

func TestPlan_BlockedStepsNeverRun(t *testing.T) {
	// Step 2 depends on a step id that does not exist: it stays pending.
	planJSON := `{"steps":[
		{"id":"1","description":"a"},
		{"id":"2","description":"b","dependsOn":["missing"]}
	]}`
	m := &stubModel{script: []*model.Result{
		planResult(planJSON),
		textResult("a done"),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	assert.Equal(t, 1, turn.Steps)

	plan := turn.State.Plan()
	assert.Equal(t, core.StepCompleted, plan[0].Status)
	assert.Equal(t, core.StepPending, plan[1].Status)
}

func TestPlan_StepProposalsRunThroughRegistry(t *testing.T) {
	m := &stubModel{script: []*model.Result{
		planResult(`{"steps":[{"id":"1","description":"use the echo tool","tool":"echo"}]}`),
		toolCallResult("calling echo", core.ToolCall{ID: "c1", Name: "echo", Args: map[string]any{"value": "pong"}}),
	}}

	var observed []core.CallResult
	p := NewPlan(m, func(o *Options) {
		o.Tools = map[string]tool.Tool{"echo": echoTool(t, "echo")}
		o.Hooks.OnObservation = func(_ int, results []core.CallResult) { observed = results }
	})

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	require.Len(t, observed, 1)
	assert.Equal(t, "pong", observed[0].Value)

	// The step prompt names the tool to use.
	stepMsgs := m.callMessages(1)
	assert.Contains(t, stepMsgs[len(stepMsgs)-1].Content, "echo tool")

	assert.Equal(t, core.StepCompleted, turn.State.Plan()[0].Status)
}

func TestPlan_HooksFireInOrder(t *testing.T) {
	var order []string
	m := &stubModel{script: []*model.Result{
		planResult(`{"steps":[{"id":"1","description":"a"}]}`),
		textResult("done"),
	}}
	p := NewPlan(m, func(o *Options) {
		o.Hooks = Hooks{
			OnPlanCreated:   func([]core.PlanStep) { order = append(order, "plan_created") },
			OnPlanStepStart: func(core.PlanStep) { order = append(order, "step_start") },
			OnPlanStepEnd:   func(core.PlanStep) { order = append(order, "step_end") },
			OnComplete:      func(*Turn) { order = append(order, "complete") },
		}
	})

	_, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	assert.Equal(t, []string{"plan_created", "step_start", "step_end", "complete"}, order)
}

func TestPlan_MissingIDsAreAssignedPositionally(t *testing.T) {
	m := &stubModel{script: []*model.Result{
		planResult(`{"steps":[{"description":"first"},{"description":"second"}]}`),
		textResult("one"),
		textResult("two"),
	}}
	p := NewPlan(m)

	turn, err := p.Execute(context.Background(), Request{Input: "go"})

	require.NoError(t, err)
	plan := turn.State.Plan()
	require.Len(t, plan, 2)
	assert.Equal(t, "1", plan[0].ID)
	assert.Equal(t, "2", plan[1].ID)
}
