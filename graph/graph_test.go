package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonaskahn/lucas/core"
)

func record(trace *[]string, name string) NodeFunc {
	return func(_ context.Context, _ *core.State) error {
		*trace = append(*trace, name)
		return nil
	}
}

func TestGraph_SequentialRun(t *testing.T) {
	var trace []string
	g := New()
	assert.NoError(t, g.AddNode("a", record(&trace, "a")))
	assert.NoError(t, g.AddNode("b", record(&trace, "b")))
	assert.NoError(t, g.AddEdge("a", "b"))
	assert.NoError(t, g.AddEdge("b", End))
	g.SetEntryPoint("a")

	compiled, err := g.Compile(nil)
	assert.NoError(t, err)
	assert.NoError(t, compiled.Run(context.Background(), core.NewState()))
	assert.Equal(t, []string{"a", "b"}, trace)
}

func TestGraph_ConditionalRouting(t *testing.T) {
	var trace []string
	g := New()
	assert.NoError(t, g.AddNode("decide", func(_ context.Context, state *core.State) error {
		state.IncrementHops()
		trace = append(trace, "decide")
		return nil
	}))
	assert.NoError(t, g.AddNode("left", record(&trace, "left")))
	assert.NoError(t, g.AddNode("right", record(&trace, "right")))
	assert.NoError(t, g.AddConditionalEdge("decide", func(state *core.State) string {
		if state.Hops > 1 {
			return "r"
		}
		return "l"
	}, map[string]string{"l": "left", "r": "right"}))
	assert.NoError(t, g.AddEdge("left", "decide"))
	assert.NoError(t, g.AddEdge("right", End))
	g.SetEntryPoint("decide")

	compiled, err := g.Compile(nil)
	assert.NoError(t, err)
	assert.NoError(t, compiled.Run(context.Background(), core.NewState()))
	assert.Equal(t, []string{"decide", "left", "decide", "right"}, trace)
}

func TestGraph_EdgeExclusivity(t *testing.T) {
	g := New()
	assert.NoError(t, g.AddNode("a", record(new([]string), "a")))
	assert.NoError(t, g.AddEdge("a", End))
	assert.Error(t, g.AddEdge("a", End))
	assert.Error(t, g.AddConditionalEdge("a", func(*core.State) string { return "x" }, nil))
}

func TestGraph_CompileValidation(t *testing.T) {
	g := New()
	assert.NoError(t, g.AddNode("a", record(new([]string), "a")))
	assert.NoError(t, g.AddEdge("a", "missing"))

	_, err := g.Compile(nil)
	assert.Error(t, err) // no entry point

	g.SetEntryPoint("a")
	_, err = g.Compile(nil)
	assert.ErrorContains(t, err, "unknown node")
}

func TestGraph_UnmappedLabelFailsRun(t *testing.T) {
	g := New()
	assert.NoError(t, g.AddNode("a", record(new([]string), "a")))
	assert.NoError(t, g.AddConditionalEdge("a", func(*core.State) string { return "nowhere" },
		map[string]string{"somewhere": End}))
	g.SetEntryPoint("a")

	compiled, err := g.Compile(nil)
	assert.NoError(t, err)
	err = compiled.Run(context.Background(), core.NewState())
	assert.ErrorContains(t, err, "no mapping for route label")
}

func TestGraph_NodeErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	g := New()
	assert.NoError(t, g.AddNode("a", func(context.Context, *core.State) error { return boom }))
	assert.NoError(t, g.AddEdge("a", End))
	g.SetEntryPoint("a")

	compiled, err := g.Compile(nil)
	assert.NoError(t, err)
	assert.ErrorIs(t, compiled.Run(context.Background(), core.NewState()), boom)
}

func TestGraph_StepCeilingCatchesCycles(t *testing.T) {
	g := New()
	assert.NoError(t, g.AddNode("a", record(new([]string), "a")))
	assert.NoError(t, g.AddNode("b", record(new([]string), "b")))
	assert.NoError(t, g.AddEdge("a", "b"))
	assert.NoError(t, g.AddEdge("b", "a"))
	g.SetEntryPoint("a")

	compiled, err := g.Compile(nil)
	assert.NoError(t, err)
	err = compiled.Run(context.Background(), core.NewState())
	assert.ErrorContains(t, err, "transitions")
}
