// Package model defines the inference collaborator consumed by strategies:
// a black box that turns conversation history into a Result, optionally
// having resolved proposed tool calls internally, plus a streaming variant
// that additionally yields live provider events. Subpackages adapt the
// official OpenAI and Anthropic SDKs; MockModel serves tests and examples.
package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stridekit/stride/core"
)

// Usage captures token usage counters for a single inference call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usage records.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// ToolExecution is a tool call the inference layer already resolved itself,
// paired with the raw outcome. Strategies surface these as observations but
// never re-execute them.
type ToolExecution struct {
	Call  core.ToolCall `json:"call"`
	Value any           `json:"value,omitempty"`
	Err   string        `json:"error,omitempty"`
}

// Result is the structured outcome of one inference call.
type Result struct {
	// Text is the assistant response text.
	Text string `json:"text"`

	// Messages are the newly produced conversation records to merge into
	// the execution state (assistant turns, provider-side tool messages).
	Messages []core.Message `json:"messages,omitempty"`

	// ToolCalls are pending tool-call proposals awaiting engine-side
	// scheduling and execution.
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`

	// ToolExecutions are proposals the inference layer resolved itself.
	ToolExecutions []ToolExecution `json:"tool_executions,omitempty"`

	// Structured is an optional machine-readable payload (e.g. a plan)
	// when the provider supports structured output.
	Structured json.RawMessage `json:"structured,omitempty"`

	Usage Usage `json:"usage"`
}

// StreamEvent is one live record of a streaming inference call. The terminal
// event carries the final Result; preceding events are provider deltas.
type StreamEvent struct {
	// Type labels the record: "delta", "tool_call", "result" or a
	// provider-specific tag.
	Type string `json:"type"`

	// Text is the incremental text for delta events.
	Text string `json:"text,omitempty"`

	// Result is non-nil exactly once, on the terminal event.
	Result *Result `json:"result,omitempty"`

	// Raw preserves the untranslated provider record when available.
	Raw any `json:"-"`
}

// StreamEventResult is the Type of the terminal stream event.
const StreamEventResult = "result"

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface strategies require to drive generation.
//
// Implementations must honor ctx cancellation: Infer returns ctx.Err() and
// InferStream terminates both channels. The error channel is buffered size 1
// and closed together with the event channel when the call settles.
type Model interface {
	// Infer runs a single-shot inference call over the history.
	Infer(ctx context.Context, messages []core.Message) (*Result, error)

	// InferStream runs a streaming inference call. The event channel yields
	// provider records in arrival order and terminates with a
	// StreamEventResult event carrying the final Result.
	InferStream(ctx context.Context, messages []core.Message) (<-chan StreamEvent, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Results are consumed in FIFO order regardless of input; once the script is
// exhausted a plain text result echoing the last message is produced.
type MockModel struct {
	info   Info
	script []*Result
	calls  int
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string, script ...*Result) *MockModel {
	return &MockModel{
		info:   Info{Name: name, Provider: "mock", SupportsTools: true},
		script: script,
	}
}

// Enqueue appends a scripted result.
func (m *MockModel) Enqueue(r *Result) { m.script = append(m.script, r) }

// Calls reports how many inference calls were made.
func (m *MockModel) Calls() int { return m.calls }

func (m *MockModel) next(messages []core.Message) *Result {
	m.calls++
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r
	}
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	text := fmt.Sprintf("Mock response to: %s", last)
	return &Result{Text: text, Messages: []core.Message{core.NewAssistantMessage(text)}}
}

// Infer implements Model.
func (m *MockModel) Infer(ctx context.Context, messages []core.Message) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.next(messages), nil
}

// InferStream implements Model; emits per-rune delta events then the result.
func (m *MockModel) InferStream(ctx context.Context, messages []core.Message) (<-chan StreamEvent, <-chan error) {
	out := make(chan StreamEvent, 16)
	errCh := make(chan error, 1)

	res := m.next(messages)

	go func() {
		defer close(out)
		defer close(errCh)

		for _, r := range res.Text {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- StreamEvent{Type: "delta", Text: string(r)}:
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- StreamEvent{Type: StreamEventResult, Result: res}:
		}
	}()

	return out, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
