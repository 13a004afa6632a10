package core

import "time"

// EventKind discriminates the engine-level branch of the Event union.
type EventKind string

const (
	// EventStepStart marks the beginning of a strategy step/cycle.
	EventStepStart EventKind = "step_start"
	// EventStepEnd marks the end of a strategy step/cycle.
	EventStepEnd EventKind = "step_end"
	// EventReasoning carries a reasoning-trace entry (react strategy).
	EventReasoning EventKind = "reasoning"
	// EventAction carries tool-call proposals surfaced by the model.
	EventAction EventKind = "action"
	// EventObservation carries tool results fed back into the run.
	EventObservation EventKind = "observation"
	// EventPlanCreated carries the freshly parsed plan (plan strategy).
	EventPlanCreated EventKind = "plan_created"
	// EventPlanStepStart marks a plan step entering in_progress.
	EventPlanStepStart EventKind = "plan_step_start"
	// EventPlanStepEnd marks a plan step reaching a terminal status.
	EventPlanStepEnd EventKind = "plan_step_end"
	// EventInference tags an opaque inference-level record passed through
	// unchanged and in arrival order.
	EventInference EventKind = "inference"
	// EventError reports a strategy-level failure before the run rejects.
	EventError EventKind = "error"
)

// Event is one record of the live stream a strategy run emits. Engine-level
// events describe the orchestration lifecycle and carry the step number and
// owning-agent identity; inference-level events wrap the model layer's own
// stream records without interpretation.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Agent     string    `json:"agent,omitempty"`
	Step      int       `json:"step,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Reasoning is set on EventReasoning.
	Reasoning string `json:"reasoning,omitempty"`

	// Calls is set on EventAction.
	Calls []ToolCall `json:"calls,omitempty"`

	// Results is set on EventObservation.
	Results []CallResult `json:"results,omitempty"`

	// Plan is set on EventPlanCreated; PlanStep on the plan step boundaries.
	Plan     []PlanStep `json:"plan,omitempty"`
	PlanStep *PlanStep  `json:"plan_step,omitempty"`

	// Inference holds the opaque model-layer record on EventInference.
	Inference any `json:"inference,omitempty"`

	// Err is set on EventError.
	Err error `json:"-"`
}

// NewEvent creates an engine-level event for the given agent and step.
func NewEvent(kind EventKind, agent string, step int) Event {
	return Event{
		ID:        NewID(),
		Kind:      kind,
		Agent:     agent,
		Step:      step,
		Timestamp: time.Now().UTC(),
	}
}

// NewInferenceEvent wraps an opaque model-layer record for passthrough.
func NewInferenceEvent(payload any) Event {
	return Event{
		ID:        NewID(),
		Kind:      EventInference,
		Timestamp: time.Now().UTC(),
		Inference: payload,
	}
}

// IsEngineLevel reports whether the event belongs to the engine-level branch
// of the union.
func (e Event) IsEngineLevel() bool { return e.Kind != EventInference }
