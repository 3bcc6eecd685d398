package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_AppendMessagesIsAdditive(t *testing.T) {
	state := NewState(NewUserMessage("hello"))
	state.AppendMessages(NewAssistantMessage("hi"))
	state.AppendMessages(NewSystemMessage("note"))

	assert.Len(t, state.Messages, 3)
	assert.Equal(t, RoleUser, state.Messages[0].Role)
	assert.Equal(t, RoleAssistant, state.Messages[1].Role)
	assert.Equal(t, RoleSystem, state.Messages[2].Role)
}

func TestState_MarkAgentUsed(t *testing.T) {
	state := NewState()

	state.MarkAgentUsed("search")
	state.MarkAgentUsed("calculator")
	state.MarkAgentUsed("search")

	// agents_used stays set-like in first-arrival order
	assert.Equal(t, []string{"search", "calculator"}, state.AgentsUsed)
	assert.Equal(t, "search", state.CurrentAgent)
	assert.Equal(t, "search", state.PluginContext[ContextLastPlugin])

	// routing history keeps one entry per step, repeats included
	assert.Equal(t, []string{"search", "calculator", "search"}, state.RoutingHistory())
}

func TestState_IncrementHops(t *testing.T) {
	state := NewState()
	assert.Equal(t, 0, state.Hops)
	state.IncrementHops()
	state.IncrementHops()
	assert.Equal(t, 2, state.Hops)
}

func TestState_SessionIDUntouched(t *testing.T) {
	state := NewState(NewUserMessage("q"))
	state.SessionID = "sess-42"

	state.MarkAgentUsed("search")
	state.IncrementHops()
	state.AppendMessages(NewAssistantMessage("a"))

	assert.Equal(t, "sess-42", state.SessionID)
}

func TestState_CloneIsolation(t *testing.T) {
	state := NewState(NewUserMessage("q"))
	state.MarkAgentUsed("search")

	clone := state.Clone()
	clone.AppendMessages(NewAssistantMessage("a"))
	clone.MarkAgentUsed("calculator")
	clone.Messages[0].Text = "mutated"

	assert.Len(t, state.Messages, 1)
	assert.Equal(t, "q", state.Messages[0].Text)
	assert.Equal(t, []string{"search"}, state.AgentsUsed)
	assert.Equal(t, []string{"search"}, state.RoutingHistory())
}

func TestMessage_LastToolResult(t *testing.T) {
	msg := Message{Role: RoleTool, ToolResults: []ToolResult{
		{ID: "1", Name: "a", Content: "first"},
		{ID: "2", Name: "b", Content: "second"},
	}}
	tr, ok := msg.LastToolResult()
	assert.True(t, ok)
	assert.Equal(t, "second", tr.Content)

	_, ok = NewUserMessage("x").LastToolResult()
	assert.False(t, ok)

	single, ok := NewToolResultMessage(ToolResult{ID: "3", Content: "only"}).LastToolResult()
	assert.True(t, ok)
	assert.Equal(t, "only", single.Content)
}
