package plugin

import (
	"context"
	"fmt"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/graph"
	"github.com/jonaskahn/lucas/llm"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/tool"
)

// Route labels returned by a bundle's continuation condition.
const (
	// RouteContinue directs the agent to its tools node.
	RouteContinue = "continue"
	// RouteBack returns control to the coordinator.
	RouteBack = "back"
)

// Node name suffixes used to splice a plugin into the routing graph.
const (
	agentNodeSuffix = "_agent"
	toolsNodeSuffix = "_tools"
)

// Bundle is one loaded, ready-to-run plugin: metadata, the agent, the model
// handle bound to the agent's tools, and the tool set itself. Bundles are
// created during loading, immutable afterwards and replaced wholesale on
// reload.
type Bundle struct {
	Metadata Metadata
	Agent    Agent
	Bound    *llm.BoundModel
	Tools    []tool.Tool

	toolIndex map[string]tool.Tool
	logger    logging.Logger
}

// NewBundle assembles a bundle from its loaded parts.
func NewBundle(meta Metadata, agent Agent, bound *llm.BoundModel, tools []tool.Tool, logger logging.Logger) *Bundle {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	index := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		index[t.Name()] = t
	}
	return &Bundle{
		Metadata:  meta,
		Agent:     agent,
		Bound:     bound,
		Tools:     tools,
		toolIndex: index,
		logger:    logger,
	}
}

// AgentNodeName returns the graph node name of the plugin's agent step.
func (b *Bundle) AgentNodeName() string { return b.Metadata.Name + agentNodeSuffix }

// ToolsNodeName returns the graph node name of the plugin's tool step.
func (b *Bundle) ToolsNodeName() string { return b.Metadata.Name + toolsNodeSuffix }

// AgentNode returns the graph step invoking the plugin's tool-bound model.
// It prepends the system prompt, appends the model reply, increments hops
// and records the plugin in the state's usage tracking. A missing bound
// model is a configuration fault: the step fails and aborts the turn.
func (b *Bundle) AgentNode() graph.NodeFunc {
	name := b.Metadata.Name
	return func(ctx context.Context, state *core.State) error {
		if b.Bound == nil {
			return fmt.Errorf("no bound model for plugin agent %q", name)
		}
		messages := make([]core.Message, 0, len(state.Messages)+1)
		messages = append(messages, core.NewSystemMessage(b.Agent.SystemPrompt()))
		messages = append(messages, state.Messages...)

		reply, err := b.Bound.Invoke(ctx, messages, true)
		if err != nil {
			return fmt.Errorf("plugin agent %q model call: %w", name, err)
		}
		reply.Agent = name
		state.AppendMessages(reply)
		state.IncrementHops()
		state.MarkAgentUsed(name)

		b.logger.Debug("plugin.agent.step", "plugin", name, "hops", state.Hops,
			"tool_calls", len(reply.ToolCalls))
		return nil
	}
}

// ToolsNode returns the graph step executing the plugin's own tools for the
// pending calls of the last assistant message. Results are appended as one
// tool-role message; control then flows back to the agent via the bundle's
// direct edge.
func (b *Bundle) ToolsNode() graph.NodeFunc {
	name := b.Metadata.Name
	return func(ctx context.Context, state *core.State) error {
		last, ok := state.LastMessage()
		if !ok || !last.HasToolCalls() {
			b.logger.Warn("plugin.tools.no_pending_calls", "plugin", name)
			return nil
		}
		results := executeToolCalls(ctx, b.logger, b.toolIndex, last.ToolCalls)
		state.AppendMessages(core.Message{Role: core.RoleTool, ToolResults: results, Agent: name})
		return nil
	}
}

// Continue is the conditional routing function on the agent node: tools when
// the reply carries pending calls, otherwise back to the coordinator.
func (b *Bundle) Continue(state *core.State) string {
	if last, ok := state.LastMessage(); ok && last.HasToolCalls() {
		return RouteContinue
	}
	return RouteBack
}

// Healthy reports whether the bundle satisfies the health invariants:
// non-nil agent, non-nil bound model, at least one tool, valid metadata.
func (b *Bundle) Healthy() bool {
	return b.Agent != nil &&
		b.Bound != nil &&
		len(b.Tools) > 0 &&
		b.Metadata.Validate() == nil
}
