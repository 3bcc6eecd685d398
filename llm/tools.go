package llm

import (
	"github.com/jonaskahn/lucas/model"
	"github.com/jonaskahn/lucas/tool"
)

// DefaultModelFor picks a reasonable default model identifier per provider
// family, used when neither the caller nor plugin metadata names one.
func DefaultModelFor(provider string) string {
	switch provider {
	case "anthropic", "claude":
		return "claude-3-5-sonnet-20241022"
	case "google", "gemini":
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

// ToolDefinitions converts tools into the provider-neutral definitions the
// model layer binds.
func ToolDefinitions(tools []tool.Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
