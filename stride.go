// Package stride provides a high-level façade over the strategy engine,
// tool registry and checkpoint stores, enabling rapid construction of
// agent execution pipelines. Most applications interact with this package by:
//  1. Creating a Stride via New() with a model and optional overrides
//  2. Registering tools (with scheduling capabilities where needed)
//  3. Running sessions synchronously (Execute) or as a live event stream (Stream)
//
// The façade delegates step orchestration to the strategy package while
// keeping setup ergonomics concise. Defaults are safe for local development
// and testing; production deployments typically supply a durable checkpoint
// store and a structured logger.
package stride

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stridekit/stride/checkpoint"
	"github.com/stridekit/stride/checkpoint/sqlite"
	"github.com/stridekit/stride/config"
	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/logging"
	"github.com/stridekit/stride/model"
	"github.com/stridekit/stride/strategy"
	"github.com/stridekit/stride/tool"
)

// Options configures the Stride instance.
type Options struct {
	// Strategy selects the execution strategy: "loop", "react" or "plan".
	// Defaults to "loop".
	Strategy string

	// MaxIterations caps loop/react cycles. 0 means unbounded.
	MaxIterations int

	// StopCondition optionally ends runs early.
	StopCondition strategy.StopCondition

	// Hooks are the strategy lifecycle callbacks.
	Hooks strategy.Hooks

	// Checkpoints receives serialized snapshots after each completed step
	// (defaults to no checkpointing).
	Checkpoints checkpoint.Store

	// Capabilities overrides the scheduling constraints declared by tools.
	Capabilities map[string]core.Capability

	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger

	// EventBufferSize sets the streaming event channel buffer.
	EventBufferSize int

	// Prompt overrides for the react and plan strategies.
	ReasonPrompt string
	ActPrompt    string
	PlanPrompt   string
	MaxPlanSteps int
}

// Stride is the high-level façade aggregating a strategy, its model and the
// registered tools.
type Stride struct {
	opts     Options
	model    model.Model
	tools    map[string]tool.Tool
	strategy strategy.Strategy
}

// New creates a new Stride instance over the given model with optional
// overrides.
func New(m model.Model, optFns ...func(o *Options)) (*Stride, error) {
	opts := Options{
		Strategy: "loop",
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Stride{
		opts:  opts,
		model: m,
		tools: make(map[string]tool.Tool),
	}

	strat, err := s.buildStrategy()
	if err != nil {
		return nil, err
	}
	s.strategy = strat
	return s, nil
}

// NewFromConfig assembles a Stride instance from a parsed configuration.
// The model adapter itself is supplied by the caller since provider
// construction needs credentials outside the config file's scope.
func NewFromConfig(cfg config.Config, m model.Model, optFns ...func(o *Options)) (*Stride, error) {
	var store checkpoint.Store
	switch cfg.Checkpoint.Backend {
	case "memory":
		store = checkpoint.NewInMemoryStore()
	case "sqlite":
		s, err := sqlite.New(context.Background(), cfg.Checkpoint.Path)
		if err != nil {
			return nil, fmt.Errorf("stride: open checkpoint store: %w", err)
		}
		store = s
	}

	logger := logging.New(&logging.Config{
		Level:  parseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})

	fns := append([]func(o *Options){func(o *Options) {
		o.Strategy = cfg.Strategy.Name
		o.MaxIterations = cfg.Strategy.MaxIterations
		o.MaxPlanSteps = cfg.Strategy.MaxPlanSteps
		o.ReasonPrompt = cfg.Strategy.ReasonPrompt
		o.ActPrompt = cfg.Strategy.ActPrompt
		o.PlanPrompt = cfg.Strategy.PlanPrompt
		o.EventBufferSize = cfg.EventBufferSize
		o.Checkpoints = store
		o.Logger = logger
	}}, optFns...)

	return New(m, fns...)
}

// RegisterTool adds a tool to the registry. Registration after New is
// effective because the strategy shares the registry map.
func (s *Stride) RegisterTool(t tool.Tool) {
	s.tools[t.Name()] = t
}

// Tools returns the registered tools as model tool definitions, ready to be
// handed to a provider adapter's Options.Tools.
func (s *Stride) Tools() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Strategy exposes the underlying strategy.
func (s *Stride) Strategy() strategy.Strategy { return s.strategy }

// Execute runs the configured strategy to completion.
func (s *Stride) Execute(ctx context.Context, req strategy.Request) (*strategy.Turn, error) {
	return s.strategy.Execute(ctx, req)
}

// Stream runs the configured strategy while emitting a live tagged-event
// sequence. The returned handle carries the event channel, the deferred
// final result and the Abort control.
func (s *Stride) Stream(ctx context.Context, req strategy.Request) *strategy.Run {
	return s.strategy.Stream(ctx, req)
}

// ExecuteText is a synchronous helper that runs a fresh session over a
// single user input and returns the final response text.
func (s *Stride) ExecuteText(ctx context.Context, input string) (string, error) {
	turn, err := s.Execute(ctx, strategy.Request{Input: input})
	if err != nil {
		return "", err
	}
	return turn.Result.Text, nil
}

// parseLevel maps a config level string onto a slog level (info on unknown).
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *Stride) buildStrategy() (strategy.Strategy, error) {
	apply := func(o *strategy.Options) {
		o.MaxIterations = s.opts.MaxIterations
		o.StopCondition = s.opts.StopCondition
		o.Tools = s.tools
		o.Capabilities = s.opts.Capabilities
		o.Hooks = s.opts.Hooks
		o.Checkpoints = s.opts.Checkpoints
		o.Logger = s.opts.Logger
		if s.opts.EventBufferSize > 0 {
			o.EventBufferSize = s.opts.EventBufferSize
		}
		if s.opts.ReasonPrompt != "" {
			o.ReasonPrompt = s.opts.ReasonPrompt
		}
		if s.opts.ActPrompt != "" {
			o.ActPrompt = s.opts.ActPrompt
		}
		if s.opts.PlanPrompt != "" {
			o.PlanPrompt = s.opts.PlanPrompt
		}
		if s.opts.MaxPlanSteps > 0 {
			o.MaxPlanSteps = s.opts.MaxPlanSteps
		}
	}

	switch s.opts.Strategy {
	case "", "loop":
		return strategy.NewLoop(s.model, apply), nil
	case "react":
		return strategy.NewReact(s.model, apply), nil
	case "plan":
		return strategy.NewPlan(s.model, apply), nil
	default:
		return nil, fmt.Errorf("stride: unknown strategy %q", s.opts.Strategy)
	}
}
