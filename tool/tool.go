// Package tool implements the function calling subsystem that lets plugin
// agents invoke structured capabilities with schema validated arguments and
// consistent error handling. Plugin agent tools are distinct from the
// coordinator's routing tools; only the latter are ever bound to the
// coordinator's model.
package tool

import (
	"context"
	"fmt"

	"github.com/jonaskahn/lucas/internal/util"
)

// Tool is a named, described, invocable unit with a fixed argument schema.
//
// Implementations should provide clear names and descriptions (they are shown
// to the model), define a proper JSON schema for parameters, handle errors
// gracefully and be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description returns a human-readable description shown to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError reports arguments rejected by schema validation.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
