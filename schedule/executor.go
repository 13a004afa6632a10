package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/logging"
	"github.com/stridekit/stride/tool"
)

// CallExecutor runs one tool call and returns its raw value. Implementations
// must be safe for concurrent invocation: non-barrier groups run their calls
// from multiple goroutines.
type CallExecutor func(ctx context.Context, call core.ToolCall) (any, error)

// ExecutorOptions configures Run.
type ExecutorOptions struct {
	// Logger records per-call outcomes. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Run executes groups strictly in order, one group at a time. Barrier groups
// run their calls sequentially in list order; non-barrier groups start all
// calls concurrently and wait for every one to settle before moving on. A
// failing call never cancels siblings and is never retried; it is captured
// as an error CallResult. Every result records wall-clock duration
// regardless of outcome.
//
// Results are returned in group order; within a non-barrier group results
// keep the group's list order even though execution order is unspecified.
func Run(ctx context.Context, groups []Group, exec CallExecutor, optFns ...func(o *ExecutorOptions)) []core.CallResult {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var results []core.CallResult
	for _, group := range groups {
		if group.Barrier || len(group.Calls) == 1 {
			for _, call := range group.Calls {
				results = append(results, runOne(ctx, call, exec, opts.Logger))
			}
			continue
		}

		// All calls settle before the group is considered done; no
		// partial-group short-circuiting.
		groupResults := make([]core.CallResult, len(group.Calls))
		var wg sync.WaitGroup
		for i, call := range group.Calls {
			wg.Add(1)
			go func(idx int, c core.ToolCall) {
				defer wg.Done()
				groupResults[idx] = runOne(ctx, c, exec, opts.Logger)
			}(i, call)
		}
		wg.Wait()
		results = append(results, groupResults...)
	}
	return results
}

// runOne executes a single call with panic safety and duration capture.
func runOne(ctx context.Context, call core.ToolCall, exec CallExecutor, logger logging.Logger) core.CallResult {
	start := time.Now()

	var (
		value any
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
			}
		}()
		value, err = exec(ctx, call)
	}()

	dur := time.Since(start)
	logger.Info("schedule.call.executed",
		"call_id", call.ID,
		"tool", call.Name,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	return core.CallResult{Call: call, Value: value, Err: err, Duration: dur}
}

// RegistryExecutor builds a CallExecutor over a tool registry. A call naming
// an unknown tool yields an error result without invoking anything.
func RegistryExecutor(tools map[string]tool.Tool) CallExecutor {
	return func(ctx context.Context, call core.ToolCall) (any, error) {
		t, ok := tools[call.Name]
		if !ok {
			return nil, &tool.ToolError{
				Tool:    call.Name,
				Message: "no tool registered under this name",
				Code:    tool.CodeUnknownTool,
			}
		}
		return t.Call(ctx, call.Args)
	}
}
