package core

import "github.com/google/uuid"

// Conversation roles used throughout the engine. Models may emit additional
// roles; the engine passes unknown roles through unchanged.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single role-based conversation record. Tool result messages
// carry the originating call id so providers can correlate them with the
// assistant turn that requested the call.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCallID links a RoleTool message to the ToolCall it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName names the tool that produced a RoleTool message.
	ToolName string `json:"tool_name,omitempty"`

	// ToolCalls carries the proposals attached to an assistant message so
	// provider adapters can round-trip call/result correlation.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// NewUserMessage builds a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewSystemMessage builds a system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewAssistantMessage builds an assistant-authored text message.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolMessage builds a tool result message correlated to a call id.
func NewToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: toolName}
}

// NewID generates a new unique identifier for calls and events.
func NewID() string { return uuid.NewString() }
