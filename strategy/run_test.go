package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
	"github.com/stridekit/stride/tool"
)

func collectEvents(t *testing.T, run *Run) []core.Event {
	t.Helper()
	var events []core.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining event stream")
		}
	}
}

func kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestStream_MultiplexesEngineAndInferenceEvents(t *testing.T) {
	m := &stubModel{script: []*model.Result{textResult("hi")}}
	l := NewLoop(m)

	run := l.Stream(context.Background(), Request{Input: "hello"})
	events := collectEvents(t, run)

	turn, err := run.Wait()
	require.NoError(t, err)
	assert.Equal(t, "hi", turn.Result.Text)

	ks := kinds(events)
	assert.Contains(t, ks, core.EventStepStart)
	assert.Contains(t, ks, core.EventInference)
	assert.Contains(t, ks, core.EventStepEnd)

	// Step-start precedes every inference event of the step; step-end is last.
	assert.Equal(t, core.EventStepStart, ks[0])
	assert.Equal(t, core.EventStepEnd, ks[len(ks)-1])

	// Inference events carry the provider payload opaquely.
	for _, ev := range events {
		if ev.Kind == core.EventInference {
			assert.NotNil(t, ev.Inference)
			assert.False(t, ev.IsEngineLevel())
		} else {
			assert.True(t, ev.IsEngineLevel())
		}
	}
}

func TestStream_ActionAndObservationEventsCarryPayloads(t *testing.T) {
	m := &stubModel{script: []*model.Result{
		toolCallResult("using echo", core.ToolCall{ID: "c1", Name: "echo", Args: map[string]any{"value": "hi"}}),
		textResult("done"),
	}}
	l := NewLoop(m, func(o *Options) {
		o.Tools = map[string]tool.Tool{"echo": echoTool(t, "echo")}
	})

	run := l.Stream(context.Background(), Request{Input: "go"})
	events := collectEvents(t, run)

	_, err := run.Wait()
	require.NoError(t, err)

	var action, observation *core.Event
	for i := range events {
		switch events[i].Kind {
		case core.EventAction:
			if action == nil {
				action = &events[i]
			}
		case core.EventObservation:
			if observation == nil {
				observation = &events[i]
			}
		}
	}
	require.NotNil(t, action)
	require.Len(t, action.Calls, 1)
	assert.Equal(t, "c1", action.Calls[0].ID)

	require.NotNil(t, observation)
	require.Len(t, observation.Results, 1)
	assert.Equal(t, "hi", observation.Results[0].Value)
}

func TestStream_AbortRejectsDeferredResult(t *testing.T) {
	// The model blocks forever; only the abort can settle the run.
	m := &stubModel{block: make(chan struct{})}
	l := NewLoop(m)

	run := l.Stream(context.Background(), Request{Input: "hello"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		run.Abort()
	}()

	done := make(chan struct{})
	var turn *Turn
	var err error
	go func() {
		defer close(done)
		turn, err = run.Wait()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Abort")
	}

	assert.Nil(t, turn)
	assert.ErrorIs(t, err, ErrCanceled)

	// The event channel closes too.
	for range run.Events() {
	}
}

func TestStream_AbortIsIdempotent(t *testing.T) {
	m := &stubModel{block: make(chan struct{})}
	l := NewLoop(m)

	run := l.Stream(context.Background(), Request{Input: "hello"})
	run.Abort()
	run.Abort()
	run.Abort()

	_, err := run.Wait()
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestStream_AbortAfterCompletionKeepsResult(t *testing.T) {
	m := &stubModel{script: []*model.Result{textResult("ok")}}
	l := NewLoop(m)

	run := l.Stream(context.Background(), Request{Input: "hello"})
	collectEvents(t, run)

	turn, err := run.Wait()
	require.NoError(t, err)

	run.Abort()

	again, err := run.Wait()
	assert.NoError(t, err)
	assert.Same(t, turn, again)
}

func TestStream_ErrorEventPrecedesFailure(t *testing.T) {
	m := &stubModel{errAt: map[int]error{1: assert.AnError}}
	l := NewLoop(m)

	run := l.Stream(context.Background(), Request{Input: "hello"})
	events := collectEvents(t, run)

	_, err := run.Wait()
	assert.ErrorIs(t, err, assert.AnError)

	var sawError bool
	for _, ev := range events {
		if ev.Kind == core.EventError {
			sawError = true
			assert.ErrorIs(t, ev.Err, assert.AnError)
		}
	}
	assert.True(t, sawError)
}

func TestStream_ParentContextCancellationBehavesLikeAbort(t *testing.T) {
	m := &stubModel{block: make(chan struct{})}
	l := NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	run := l.Stream(ctx, Request{Input: "hello"})
	cancel()

	_, err := run.Wait()
	assert.ErrorIs(t, err, ErrCanceled)
}
