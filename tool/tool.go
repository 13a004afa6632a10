// Package tool implements the tool-calling subsystem that lets strategies
// invoke structured capabilities (APIs, computations, side effects) with
// schema-validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/stridekit/stride/core"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent use; the executor may invoke a tool from
//     multiple goroutines when calls are grouped non-barrier
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the
	// model so it understands when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// CapabilityDeclarer is optionally implemented by tools that carry
// scheduling constraints (sequential execution, tool-level dependencies).
type CapabilityDeclarer interface {
	Capability() core.Capability
}

// Capabilities collects declared scheduling constraints from a registry.
// Tools without a declaration get the zero Capability (fully parallel).
func Capabilities(tools map[string]Tool) map[string]core.Capability {
	caps := make(map[string]core.Capability, len(tools))
	for name, t := range tools {
		if d, ok := t.(CapabilityDeclarer); ok {
			caps[name] = d.Capability()
		}
	}
	return caps
}

// Error codes used by ToolError.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
