package stride

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridekit/stride/config"
	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
	"github.com/stridekit/stride/strategy"
	"github.com/stridekit/stride/tool"
)

func TestNew_DefaultsToLoopStrategy(t *testing.T) {
	app, err := New(model.NewMockModel("test"))
	require.NoError(t, err)
	assert.Equal(t, "loop", app.Strategy().Name())
}

func TestNew_UnknownStrategyRejected(t *testing.T) {
	_, err := New(model.NewMockModel("test"), func(o *Options) {
		o.Strategy = "genius"
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestNew_SelectsConfiguredStrategy(t *testing.T) {
	for _, name := range []string{"loop", "react", "plan"} {
		app, err := New(model.NewMockModel("test"), func(o *Options) {
			o.Strategy = name
		})
		require.NoError(t, err)
		assert.Equal(t, name, app.Strategy().Name())
	}
}

func TestExecuteText_ReturnsFinalResponse(t *testing.T) {
	m := model.NewMockModel("test", &model.Result{
		Text:     "final",
		Messages: []core.Message{core.NewAssistantMessage("final")},
	})
	app, err := New(m)
	require.NoError(t, err)

	text, err := app.ExecuteText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "final", text)
}

func TestRegisterTool_VisibleToStrategy(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "Echoes input", nil,
		func(_ context.Context, args map[string]any) (any, error) {
			return args["value"], nil
		},
	)

	m := model.NewMockModel("test",
		&model.Result{
			Text:      "calling echo",
			Messages:  []core.Message{core.NewAssistantMessage("calling echo")},
			ToolCalls: []core.ToolCall{{ID: "c1", Name: "echo", Args: map[string]any{"value": "pong"}}},
		},
		&model.Result{
			Text:     "done",
			Messages: []core.Message{core.NewAssistantMessage("done")},
		},
	)

	app, err := New(m)
	require.NoError(t, err)
	app.RegisterTool(echo)

	turn, err := app.Execute(context.Background(), strategy.Request{Input: "go"})
	require.NoError(t, err)
	assert.Equal(t, "done", turn.Result.Text)
	assert.Equal(t, 2, turn.Steps)
}

func TestTools_ExportsDefinitions(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "Echoes input",
		map[string]any{"type": "object"},
		func(context.Context, map[string]any) (any, error) { return nil, nil },
	)

	app, err := New(model.NewMockModel("test"))
	require.NoError(t, err)
	app.RegisterTool(echo)

	defs := app.Tools()
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "Echoes input", defs[0].Description)
	assert.Equal(t, map[string]any{"type": "object"}, defs[0].Parameters)
}

func TestNewFromConfig_AssemblesStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy.Name = "react"
	cfg.Strategy.MaxIterations = 2
	cfg.Checkpoint.Backend = "memory"

	app, err := NewFromConfig(cfg, model.NewMockModel("test"))
	require.NoError(t, err)
	assert.Equal(t, "react", app.Strategy().Name())
}

func TestStream_DeliversEventsAndResult(t *testing.T) {
	m := model.NewMockModel("test", &model.Result{
		Text:     "streamed",
		Messages: []core.Message{core.NewAssistantMessage("streamed")},
	})
	app, err := New(m)
	require.NoError(t, err)

	run := app.Stream(context.Background(), strategy.Request{Input: "go"})

	sawInference := false
	for ev := range run.Events() {
		if ev.Kind == core.EventInference {
			sawInference = true
		}
	}
	assert.True(t, sawInference)

	turn, err := run.Wait()
	require.NoError(t, err)
	assert.Equal(t, "streamed", turn.Result.Text)
}
