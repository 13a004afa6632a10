package core

// StepStatus is the lifecycle state of a PlanStep. A status only advances
// pending -> in_progress -> {completed, failed}; it is never reset.
type StepStatus string

const (
	// StepPending marks a step that has not started yet.
	StepPending StepStatus = "pending"
	// StepInProgress marks the step currently executing.
	StepInProgress StepStatus = "in_progress"
	// StepCompleted marks a step that finished successfully.
	StepCompleted StepStatus = "completed"
	// StepFailed marks a step whose execution returned an error.
	StepFailed StepStatus = "failed"
)

// PlanStep is a unit of a structured execution plan. Steps are value types:
// status transitions replace the whole step inside a freshly copied slice
// rather than mutating through a shared reference.
type PlanStep struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Tool        string     `json:"tool,omitempty"`
	DependsOn   []string   `json:"depends_on,omitempty"`
	Status      StepStatus `json:"status"`
}

// ClonePlan returns a defensive copy of a plan-step slice. DependsOn slices
// are shared; they are never mutated after parsing.
func ClonePlan(steps []PlanStep) []PlanStep {
	if steps == nil {
		return nil
	}
	out := make([]PlanStep, len(steps))
	copy(out, steps)
	return out
}
