package plugin

import (
	"context"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/tool"
)

// Routing tools are the only tools ever bound to the coordinator's model:
// one zero-argument goto tool per loaded plugin plus the finalize tool.
// They are plain data-driven values parameterized by plugin name, so
// synthesis is deterministic for a given loaded-plugin set.

// gotoTool routes the conversation to one plugin's agent. Its sole effect is
// returning the bare plugin name as the routing token.
type gotoTool struct {
	plugin      string
	description string
}

// NewGotoTool synthesizes the routing tool for a plugin.
func NewGotoTool(pluginName, description string) tool.Tool {
	return &gotoTool{plugin: pluginName, description: description}
}

func (t *gotoTool) Name() string { return core.GotoPrefix + t.plugin }

func (t *gotoTool) Description() string {
	return "Route to " + t.plugin + " plugin for " + t.description
}

func (t *gotoTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *gotoTool) Call(context.Context, map[string]any) (any, error) {
	return t.plugin, nil
}

// finalizeTool signals that the task is complete.
type finalizeTool struct{}

// NewFinalizeTool constructs the finalize routing tool.
func NewFinalizeTool() tool.Tool { return &finalizeTool{} }

func (t *finalizeTool) Name() string { return "finalize" }

func (t *finalizeTool) Description() string {
	return "Signal that the task is complete and provide the final response."
}

func (t *finalizeTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *finalizeTool) Call(context.Context, map[string]any) (any, error) {
	return core.FinalToken, nil
}
