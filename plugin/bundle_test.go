package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/llm"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/model"
	"github.com/jonaskahn/lucas/tool"
)

func newTestBundle(t *testing.T, mock *model.MockModel) *Bundle {
	t.Helper()
	p := newTestPlugin("search")
	agent := p.CreateAgent()
	bound := llm.NewBoundModel(mock, llm.ToolDefinitions(agent.Tools()))
	return NewBundle(p.Metadata(), agent, bound, agent.Tools(), nil)
}

func TestBundle_NodeNames(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))
	assert.Equal(t, "search_agent", b.AgentNodeName())
	assert.Equal(t, "search_tools", b.ToolsNodeName())
}

func TestBundle_AgentNodeStep(t *testing.T) {
	mock := model.NewMockModel("m", "mock")
	mock.EnqueueText("found it")
	b := newTestBundle(t, mock)

	state := core.NewState(core.NewUserMessage("look this up"))
	assert.NoError(t, b.AgentNode()(context.Background(), state))

	last, _ := state.LastMessage()
	assert.Equal(t, "found it", last.Text)
	assert.Equal(t, "search", last.Agent)
	assert.Equal(t, 1, state.Hops)
	assert.Equal(t, []string{"search"}, state.AgentsUsed)
	assert.Equal(t, []string{"search"}, state.RoutingHistory())

	// the system prompt is prepended, not stored in state
	reqs := mock.Requests()
	assert.Len(t, reqs, 1)
	assert.Equal(t, core.RoleSystem, reqs[0].Messages[0].Role)
	assert.Len(t, state.Messages, 2)
}

func TestBundle_AgentNodeMissingBoundModelIsFatal(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))
	b.Bound = nil

	err := b.AgentNode()(context.Background(), core.NewState(core.NewUserMessage("q")))
	assert.ErrorContains(t, err, "no bound model")
}

func TestBundle_ToolsNodeExecutesPendingCalls(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))

	state := core.NewState(core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: "tc1", Name: "search_tool", Arguments: "{}"}},
	})
	assert.NoError(t, b.ToolsNode()(context.Background(), state))

	last, _ := state.LastMessage()
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Len(t, last.ToolResults, 1)
	assert.Equal(t, "tc1", last.ToolResults[0].ID)
	assert.Equal(t, "ok", last.ToolResults[0].Content)
	assert.Empty(t, last.ToolResults[0].Error)

	// tool execution itself never counts hops
	assert.Equal(t, 0, state.Hops)
}

func TestBundle_ToolsNodeUnknownTool(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))

	state := core.NewState(core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: "tc1", Name: "not_registered", Arguments: "{}"}},
	})
	assert.NoError(t, b.ToolsNode()(context.Background(), state))

	last, _ := state.LastMessage()
	assert.NotEmpty(t, last.ToolResults[0].Error)
}

func TestBundle_ToolsNodeNoPendingCallsIsNoop(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))
	state := core.NewState(core.NewAssistantMessage("done"))
	assert.NoError(t, b.ToolsNode()(context.Background(), state))
	assert.Len(t, state.Messages, 1)
}

func TestBundle_Continue(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))

	withCalls := core.NewState(core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: "1", Name: "search_tool"}},
	})
	assert.Equal(t, RouteContinue, b.Continue(withCalls))

	plain := core.NewState(core.NewAssistantMessage("answer"))
	assert.Equal(t, RouteBack, b.Continue(plain))
}

func TestBundle_Healthy(t *testing.T) {
	b := newTestBundle(t, model.NewMockModel("m", "mock"))
	assert.True(t, b.Healthy())

	broken := newTestBundle(t, model.NewMockModel("m", "mock"))
	broken.Bound = nil
	assert.False(t, broken.Healthy())

	toolless := newTestBundle(t, model.NewMockModel("m", "mock"))
	toolless.Tools = nil
	assert.False(t, toolless.Healthy())

	badMeta := newTestBundle(t, model.NewMockModel("m", "mock"))
	badMeta.Metadata.Version = ""
	assert.False(t, badMeta.Healthy())
}

func TestExecuteToolCalls_PanicRecovery(t *testing.T) {
	panicky := tool.NewFunctionToolFromStruct("panicky", "Panics", struct{}{},
		func(context.Context, map[string]any) (any, error) {
			panic("tool exploded")
		})
	index := map[string]tool.Tool{"panicky": panicky}

	results := executeToolCalls(context.Background(), logging.NoOpLogger{}, index, []core.ToolCall{
		{ID: "1", Name: "panicky", Arguments: "{}"},
	})
	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "tool exploded")
}

func TestExecuteToolCalls_OrderPreserved(t *testing.T) {
	echo := echoTool("echo")
	index := map[string]tool.Tool{"echo": echo}

	calls := make([]core.ToolCall, 6)
	for i := range calls {
		calls[i] = core.ToolCall{ID: string(rune('a' + i)), Name: "echo", Arguments: "{}"}
	}
	results := executeToolCalls(context.Background(), logging.NoOpLogger{}, index, calls)
	assert.Len(t, results, len(calls))
	for i, res := range results {
		assert.Equal(t, calls[i].ID, res.ID)
	}
}
