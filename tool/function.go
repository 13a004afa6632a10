package tool

import (
	"context"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stridekit/stride/core"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// Stride tool.
//
// Responsibilities:
//   - Holds a JSON Schema parameter specification
//   - Validates model-supplied arguments against that schema before execution
//   - Carries an optional scheduling Capability declaration
//   - Normalizes error handling so callers receive *ToolError with
//     consistent codes (CodeValidation for schema mismatch, CodeExecution
//     for underlying failures; custom codes are preserved when the function
//     returns *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is
// safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	capability  core.Capability
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// FunctionToolOptions configures optional FunctionTool behavior.
type FunctionToolOptions struct {
	// Capability declares scheduling constraints looked up by the
	// dependency scheduler (sequential execution, DependsOn tool names).
	Capability core.Capability
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []any{"a", "b"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	opts := FunctionToolOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		capability:  opts.Capability,
		fn:          fn,
	}
}

// Name returns the unique tool name used in call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Capability implements CapabilityDeclarer.
func (t *FunctionTool) Capability() core.Capability { return t.capability }

// Call validates the provided args against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *ToolError for uniform downstream handling.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}

	if err := t.validate(args); err != nil {
		return nil, err
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}
	return result, nil
}

// validate checks args against the tool schema via gojsonschema. An empty
// schema accepts anything.
func (t *FunctionTool) validate(args map[string]any) error {
	if len(t.parameters) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(t.parameters)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ToolError{
			Tool:    t.name,
			Message: "schema validation failed: " + err.Error(),
			Code:    CodeValidation,
		}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return &ToolError{
			Tool:    t.name,
			Message: "invalid arguments: " + strings.Join(msgs, "; "),
			Code:    CodeValidation,
			Details: msgs,
		}
	}
	return nil
}
