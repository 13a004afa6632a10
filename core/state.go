package core

import "encoding/json"

// State is an immutable snapshot of an execution run: accumulated messages,
// the step counter, free-form metadata, the reasoning trace (react strategy)
// and the current plan (plan strategy).
//
// Contract:
//   - Every mutator returns a new snapshot; the receiver is never modified.
//   - Accessors return defensive copies so callers cannot reach the backing
//     slices/maps of a shared snapshot.
//   - Snapshots are safe for concurrent reads without locking.
type State struct {
	messages  []Message
	step      int
	metadata  map[string]any
	reasoning []string
	plan      []PlanStep
}

// NewState creates an empty snapshot.
func NewState() *State {
	return &State{}
}

// NewStateWithMessages creates a snapshot seeded with the given messages.
func NewStateWithMessages(messages ...Message) *State {
	return NewState().WithMessages(messages...)
}

// Messages returns a copy of the accumulated message history.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Step returns the step counter.
func (s *State) Step() int { return s.step }

// Metadata returns the value and existence flag for a metadata key.
func (s *State) Metadata(key string) (any, bool) {
	v, ok := s.metadata[key]
	return v, ok
}

// Reasoning returns a copy of the reasoning-trace entries.
func (s *State) Reasoning() []string {
	out := make([]string, len(s.reasoning))
	copy(out, s.reasoning)
	return out
}

// Plan returns a copy of the plan-step list, or nil if no plan exists.
func (s *State) Plan() []PlanStep { return ClonePlan(s.plan) }

// clone copies the snapshot so a mutator can adjust one field.
func (s *State) clone() *State {
	c := &State{
		messages:  make([]Message, len(s.messages)),
		step:      s.step,
		reasoning: make([]string, len(s.reasoning)),
		plan:      ClonePlan(s.plan),
	}
	copy(c.messages, s.messages)
	copy(c.reasoning, s.reasoning)
	if s.metadata != nil {
		c.metadata = make(map[string]any, len(s.metadata))
		for k, v := range s.metadata {
			c.metadata[k] = v
		}
	}
	return c
}

// WithMessages returns a snapshot with the messages appended.
func (s *State) WithMessages(messages ...Message) *State {
	c := s.clone()
	c.messages = append(c.messages, messages...)
	return c
}

// WithAllMessages returns a snapshot whose history is replaced wholesale.
func (s *State) WithAllMessages(messages []Message) *State {
	c := s.clone()
	c.messages = make([]Message, len(messages))
	copy(c.messages, messages)
	return c
}

// WithStep returns a snapshot with the step counter set to n.
func (s *State) WithStep(n int) *State {
	c := s.clone()
	c.step = n
	return c
}

// WithMetadata returns a snapshot with one metadata entry set.
func (s *State) WithMetadata(key string, value any) *State {
	c := s.clone()
	if c.metadata == nil {
		c.metadata = map[string]any{}
	}
	c.metadata[key] = value
	return c
}

// WithReasoning returns a snapshot with a reasoning-trace entry appended.
func (s *State) WithReasoning(entry string) *State {
	c := s.clone()
	c.reasoning = append(c.reasoning, entry)
	return c
}

// WithPlan returns a snapshot whose plan-step list is replaced wholesale.
// Plan strategies call this on every status transition so earlier snapshots
// keep their view of the plan.
func (s *State) WithPlan(steps []PlanStep) *State {
	c := s.clone()
	c.plan = ClonePlan(steps)
	return c
}

// stateJSON is the serialized shape used for checkpointing.
type stateJSON struct {
	Messages  []Message      `json:"messages"`
	Step      int            `json:"step"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Reasoning []string       `json:"reasoning,omitempty"`
	Plan      []PlanStep     `json:"plan,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Messages:  s.messages,
		Step:      s.step,
		Metadata:  s.metadata,
		Reasoning: s.reasoning,
		Plan:      s.plan,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It is intended for restoring
// checkpointed snapshots; the restored value follows the same copy-on-write
// contract as freshly built snapshots.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.messages = raw.Messages
	s.step = raw.Step
	s.metadata = raw.Metadata
	s.reasoning = raw.Reasoning
	s.plan = raw.Plan
	return nil
}
