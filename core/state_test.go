package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_MutatorsReturnFreshSnapshots(t *testing.T) {
	s1 := NewState()
	s2 := s1.WithMessages(NewUserMessage("hello"))
	s3 := s2.WithStep(1)
	s4 := s3.WithMetadata("key", "value")
	s5 := s4.WithReasoning("thought")

	// Earlier snapshots never observe later mutations.
	assert.Empty(t, s1.Messages())
	assert.Equal(t, 0, s1.Step())
	assert.Len(t, s2.Messages(), 1)
	assert.Equal(t, 0, s2.Step())
	assert.Equal(t, 1, s3.Step())

	_, ok := s3.Metadata("key")
	assert.False(t, ok)
	v, ok := s4.Metadata("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	assert.Empty(t, s4.Reasoning())
	assert.Equal(t, []string{"thought"}, s5.Reasoning())
}

func TestState_AccessorsReturnDefensiveCopies(t *testing.T) {
	s := NewState().WithMessages(NewUserMessage("hello"))

	msgs := s.Messages()
	msgs[0].Content = "tampered"
	assert.Equal(t, "hello", s.Messages()[0].Content)

	s = s.WithReasoning("original")
	trace := s.Reasoning()
	trace[0] = "tampered"
	assert.Equal(t, "original", s.Reasoning()[0])
}

func TestState_WithAllMessagesReplacesHistory(t *testing.T) {
	s1 := NewState().WithMessages(NewUserMessage("old"))
	replacement := []Message{NewSystemMessage("sys"), NewUserMessage("new")}

	s2 := s1.WithAllMessages(replacement)
	replacement[0].Content = "tampered"

	assert.Len(t, s1.Messages(), 1)
	require.Len(t, s2.Messages(), 2)
	assert.Equal(t, "sys", s2.Messages()[0].Content)
}

func TestState_PlanReplacementIsolatesSnapshots(t *testing.T) {
	plan := []PlanStep{{ID: "1", Description: "a", Status: StepPending}}
	s1 := NewState().WithPlan(plan)

	// Mutating the input slice after the fact changes nothing.
	plan[0].Status = StepCompleted
	assert.Equal(t, StepPending, s1.Plan()[0].Status)

	// A status transition on a later snapshot leaves the earlier view intact.
	updated := s1.Plan()
	updated[0].Status = StepInProgress
	s2 := s1.WithPlan(updated)

	assert.Equal(t, StepPending, s1.Plan()[0].Status)
	assert.Equal(t, StepInProgress, s2.Plan()[0].Status)
}

func TestState_JSONRoundTrip(t *testing.T) {
	s := NewState().
		WithMessages(NewUserMessage("hi"), NewAssistantMessage("hello")).
		WithStep(3).
		WithMetadata("run", "test").
		WithReasoning("step one thinking").
		WithPlan([]PlanStep{{ID: "1", Description: "a", Status: StepCompleted}})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, s.Messages(), restored.Messages())
	assert.Equal(t, 3, restored.Step())
	v, ok := restored.Metadata("run")
	assert.True(t, ok)
	assert.Equal(t, "test", v)
	assert.Equal(t, s.Reasoning(), restored.Reasoning())
	assert.Equal(t, s.Plan(), restored.Plan())
}

func TestState_RestoredSnapshotKeepsCopyOnWrite(t *testing.T) {
	data, err := json.Marshal(NewState().WithMessages(NewUserMessage("hi")))
	require.NoError(t, err)

	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))

	next := restored.WithMessages(NewAssistantMessage("hello"))
	assert.Len(t, restored.Messages(), 1)
	assert.Len(t, next.Messages(), 2)
}

func TestNewToolMessage(t *testing.T) {
	msg := NewToolMessage("call-1", "search", "result text")
	assert.Equal(t, RoleTool, msg.Role)
	assert.Equal(t, "call-1", msg.ToolCallID)
	assert.Equal(t, "search", msg.ToolName)
	assert.Equal(t, "result text", msg.Content)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
