package core

import "github.com/google/uuid"

// Role identifies the author category of a conversation message.
type Role string

const (
	// RoleUser marks messages supplied by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by a model (coordinator or plugin agent).
	RoleAssistant Role = "assistant"
	// RoleTool marks tool execution results fed back into the conversation.
	RoleTool Role = "tool"
	// RoleSystem marks injected instructions and notices.
	RoleSystem Role = "system"
)

// ToolCall describes a tool invocation requested by an assistant message.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// ToolResult captures the outcome of a previously requested tool call.
type ToolResult struct {
	ID      string `json:"id,omitempty"` // Matches the originating ToolCall ID
	Name    string `json:"name"`
	Content string `json:"content,omitempty"` // Stringified result payload
	Error   string `json:"error,omitempty"`   // Populated on failure
}

// Message is one typed entry of the conversation history. Agent is the name
// of the plugin that produced an assistant message, empty for user, system
// and coordinator entries.
type Message struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Agent       string       `json:"agent,omitempty"`
}

// NewUserMessage builds a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// NewAssistantMessage builds an assistant text message.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// NewSystemMessage builds an injected system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// NewToolResultMessage wraps a single tool result as a tool-role message.
func NewToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: []ToolResult{result}}
}

// HasToolCalls reports whether the message carries pending tool calls.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// LastToolResult returns the final tool result of the message, if any.
func (m Message) LastToolResult() (ToolResult, bool) {
	if len(m.ToolResults) == 0 {
		return ToolResult{}, false
	}
	return m.ToolResults[len(m.ToolResults)-1], true
}

// NewID generates a unique identifier used for tool calls and sessions.
func NewID() string { return uuid.NewString() }
