package core

import "time"

// ToolCall is one requested tool invocation awaiting scheduling/execution.
// Instances are produced by model output and must be treated as immutable
// once issued.
type ToolCall struct {
	// ID uniquely identifies the call within a batch.
	ID string `json:"id"`

	// Name is the tool to invoke.
	Name string `json:"name"`

	// Args is the opaque argument map supplied by the model.
	Args map[string]any `json:"args,omitempty"`

	// Follows lists call ids this call must run after. It is a model-driven
	// hint evaluated by the scheduler in addition to tool-level capabilities.
	Follows []string `json:"follows,omitempty"`
}

// Capability declares scheduling constraints for a tool name. It is supplied
// by the caller alongside a call batch and looked up by name; it is not part
// of the ToolCall itself.
type Capability struct {
	// Sequential marks the tool as requiring exclusive execution. A ready
	// call for a sequential tool becomes a barrier group of its own.
	Sequential bool `json:"sequential,omitempty"`

	// DependsOn lists tool names that must be scheduled before this tool.
	DependsOn []string `json:"depends_on,omitempty"`
}

// CallResult records the outcome of one executed ToolCall. A failing call is
// data, not control flow: the executor never retries and sibling calls are
// unaffected.
type CallResult struct {
	Call     ToolCall      `json:"call"`
	Value    any           `json:"value,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the call ended in error.
func (r CallResult) Failed() bool { return r.Err != nil }
