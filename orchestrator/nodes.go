package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/model"
)

// coordinatorNode is the central decision step. When the hop budget is
// exhausted it skips the model call and injects a system notice; the
// conditional edge then forces the turn into the finalizer regardless of
// what the model would have produced. Otherwise it invokes the coordinator
// model over the routing prompt plus the accumulated history and counts one
// hop.
func (e *Engine) coordinatorNode(ctx context.Context, state *core.State) error {
	if state.Hops >= e.maxHops {
		e.logger.Warn("engine.hops.exhausted",
			"session_id", state.SessionID,
			"hops", state.Hops,
			"max_hops", e.maxHops,
		)
		state.AppendMessages(core.NewSystemMessage(
			fmt.Sprintf("Max hops (%d) reached. Finalize now.", e.maxHops)))
		return nil
	}

	_, bound, _ := e.snapshot()
	messages := make([]core.Message, 0, len(state.Messages)+1)
	messages = append(messages, core.NewSystemMessage(e.coordinatorPrompt()))
	messages = append(messages, state.Messages...)

	reply, err := bound.Invoke(ctx, messages, false)
	if err != nil {
		return fmt.Errorf("coordinator model call: %w", err)
	}
	state.AppendMessages(reply)
	state.IncrementHops()

	e.logger.Debug("engine.coordinator.step",
		"hops", state.Hops,
		"tool_calls", len(reply.ToolCalls),
	)
	return nil
}

// afterCoordinator routes the coordinator's output. A pending tool call
// goes to control tools; the injected budget notice goes to the finalizer;
// a plain answer ends the turn.
func (e *Engine) afterCoordinator(state *core.State) string {
	last, ok := state.LastMessage()
	if ok && last.HasToolCalls() {
		return routeTools
	}
	if ok && last.Role == core.RoleSystem {
		return routeFinal
	}
	return routeEnd
}

// controlToolsNode executes the routing tool chosen by the coordinator and
// appends its routing token as a tool result. Anomalies here never fail the
// turn; they produce a result the router soft-fails into finalization.
func (e *Engine) controlToolsNode(ctx context.Context, state *core.State) error {
	last, ok := state.LastMessage()
	if !ok || !last.HasToolCalls() {
		e.logger.Warn("engine.control_tools.no_pending_calls")
		return nil
	}

	_, _, index := e.snapshot()
	tc := last.ToolCalls[0]
	result := core.ToolResult{ID: tc.ID, Name: tc.Name}

	t, found := index[tc.Name]
	if !found {
		result.Error = fmt.Sprintf("unknown routing tool %q", tc.Name)
		e.logger.Warn("engine.control_tools.unknown_tool", "tool", tc.Name)
	} else {
		args := map[string]any{}
		if strings.TrimSpace(tc.Arguments) != "" {
			// Routing tools take no arguments; a decode failure is harmless.
			_ = json.Unmarshal([]byte(tc.Arguments), &args)
		}
		out, err := t.Call(ctx, args)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Content = fmt.Sprint(out)
		}
	}

	results := []core.ToolResult{result}
	// Only the first routing call is honored, but every call ID still needs a
	// result so the next provider request stays well formed.
	for _, extra := range last.ToolCalls[1:] {
		e.logger.Warn("engine.control_tools.extra_call_ignored", "tool", extra.Name)
		results = append(results, core.ToolResult{
			ID:    extra.ID,
			Name:  extra.Name,
			Error: "only one routing call per step is honored",
		})
	}
	state.AppendMessages(core.Message{Role: core.RoleTool, ToolResults: results})
	return nil
}

// afterControlTools parses the routing token emitted by the control-tools
// step into a destination. Unknown tokens and missing results are soft
// failures routed to the finalizer with a logged warning.
func (e *Engine) afterControlTools(state *core.State) string {
	var raw string
	if last, ok := state.LastMessage(); ok && len(last.ToolResults) > 0 {
		// The honored routing call's result is always first.
		if tr := last.ToolResults[0]; tr.Error == "" {
			raw = tr.Content
		}
	}

	token := core.ParseRoutingToken(raw, e.registry.IsLoaded)
	switch token.Kind {
	case core.RouteFinalize:
		e.logger.Info("engine.routing.finalize", "hops", state.Hops)
		return routeFinal
	case core.RouteAgent:
		e.logger.Info("engine.routing.agent",
			"token", token.Raw,
			"plugin", token.Plugin,
			"hops", state.Hops,
		)
		return token.Plugin
	default:
		e.logger.Warn("engine.routing.unknown_token", "token", token.Raw)
		return routeFinal
	}
}

// finalizerNode produces the user-visible answer by summarizing the full
// accumulated history with the coordinator's model. No routing tools are
// offered here and the hop counter is left unchanged.
func (e *Engine) finalizerNode(ctx context.Context, state *core.State) error {
	_, bound, _ := e.snapshot()
	messages := make([]core.Message, 0, len(state.Messages)+1)
	messages = append(messages, core.NewSystemMessage(finalizerPrompt))
	messages = append(messages, state.Messages...)

	resp, err := model.Generate(ctx, bound.Model(), model.Request{Messages: messages})
	if err != nil {
		return fmt.Errorf("finalizer model call: %w", err)
	}
	state.AppendMessages(resp.Message)
	return nil
}

const finalizerPrompt = `You are creating the final response for a multi-agent conversation.
CRITICAL REQUIREMENTS:
1. Be comprehensive but concise
2. Maintain the language used in the original query
3. Connect all the work done by different agents into a coherent answer`

// coordinatorPrompt builds the routing system prompt: one goto option per
// loaded plugin in sorted order plus finalize, with a single-tool-call
// instruction.
func (e *Engine) coordinatorPrompt() string {
	info := e.registry.RoutingInfo()
	names := make([]string, 0, len(info))
	for name := range info {
		names = append(names, name)
	}
	sort.Strings(names)

	var options, gotos []string
	for _, name := range names {
		options = append(options, fmt.Sprintf("- %s%s: %s", core.GotoPrefix, name, info[name]))
		gotos = append(gotos, core.GotoPrefix+name)
	}

	var b strings.Builder
	b.WriteString("You are the Coordinator for a multi-agent system. Your role is to analyze queries and route to appropriate agents.\n")
	b.WriteString("**AVAILABLE ROUTING OPTIONS**\n")
	b.WriteString(strings.Join(options, "\n"))
	b.WriteString("\n- finalize: Use ONLY when all necessary information has been gathered to answer the query\n")
	b.WriteString("**IMPORTANT**\n")
	b.WriteString("- You can only call ONE tool at a time. The system will invoke you again after each agent completes.\n")
	b.WriteString("**CURRENT DECISION**\n")
	b.WriteString("- Choose ONE of: " + strings.Join(append(gotos, "finalize"), " | "))
	return b.String()
}
