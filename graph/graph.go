// Package graph implements a small directed state graph driven over a shared
// mutable conversation state. Nodes and edges live in explicit adjacency
// tables keyed by node name; conditional transitions are a condition function
// plus a label-to-node mapping. The topology is assembled once (static core
// nodes plus a two-node template per loaded plugin) and then compiled before
// execution, so running a turn never mutates the graph itself.
package graph

import (
	"context"
	"fmt"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/logging"
)

// End is the terminal pseudo-node. Transitioning to it completes the run.
const End = "END"

// NodeFunc executes one graph step, mutating the shared state additively
// (appending messages, bumping counters). It must not replace prior history.
type NodeFunc func(ctx context.Context, state *core.State) error

// Condition inspects the state after a node ran and returns a route label.
// Labels are resolved through the conditional edge's mapping table.
type Condition func(state *core.State) string

type conditionalEdge struct {
	condition Condition
	mapping   map[string]string
}

// Graph is a mutable builder for the routing topology. Call Compile to
// obtain an immutable, runnable form.
type Graph struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entryPoint  string
}

// New creates an empty graph builder.
func New() *Graph {
	return &Graph{
		nodes:       map[string]NodeFunc{},
		edges:       map[string]string{},
		conditional: map[string]conditionalEdge{},
	}
}

// AddNode registers a named node. Names must be unique.
func (g *Graph) AddNode(name string, fn NodeFunc) error {
	if name == "" || name == End {
		return fmt.Errorf("invalid node name %q", name)
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %q already registered", name)
	}
	g.nodes[name] = fn
	return nil
}

// AddEdge registers an unconditional transition from one node to another.
func (g *Graph) AddEdge(from, to string) error {
	if _, exists := g.edges[from]; exists {
		return fmt.Errorf("node %q already has a direct edge", from)
	}
	if _, exists := g.conditional[from]; exists {
		return fmt.Errorf("node %q already has a conditional edge", from)
	}
	g.edges[from] = to
	return nil
}

// AddConditionalEdge registers a condition-driven transition. The condition's
// returned label is resolved through mapping; a label missing from the
// mapping is a runtime error surfaced by Run.
func (g *Graph) AddConditionalEdge(from string, cond Condition, mapping map[string]string) error {
	if _, exists := g.edges[from]; exists {
		return fmt.Errorf("node %q already has a direct edge", from)
	}
	if _, exists := g.conditional[from]; exists {
		return fmt.Errorf("node %q already has a conditional edge", from)
	}
	g.conditional[from] = conditionalEdge{condition: cond, mapping: mapping}
	return nil
}

// SetEntryPoint marks the node where Run starts.
func (g *Graph) SetEntryPoint(name string) { g.entryPoint = name }

// Compile validates the topology (entry point set, every edge target exists)
// and returns the runnable graph.
func (g *Graph) Compile(logger logging.Logger) (*Compiled, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if g.entryPoint == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("entry point %q is not a registered node", g.entryPoint)
	}
	check := func(from, to string) error {
		if to == End {
			return nil
		}
		if _, ok := g.nodes[to]; !ok {
			return fmt.Errorf("edge from %q targets unknown node %q", from, to)
		}
		return nil
	}
	for from, to := range g.edges {
		if err := check(from, to); err != nil {
			return nil, err
		}
	}
	for from, ce := range g.conditional {
		for _, to := range ce.mapping {
			if err := check(from, to); err != nil {
				return nil, err
			}
		}
	}
	return &Compiled{
		nodes:       g.nodes,
		edges:       g.edges,
		conditional: g.conditional,
		entryPoint:  g.entryPoint,
		logger:      logger,
	}, nil
}

// Compiled is the immutable runnable topology produced by Compile. It is
// safe for concurrent use; each Run drives one state sequentially.
type Compiled struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entryPoint  string
	logger      logging.Logger
}

// stepCeiling caps graph transitions per run as a structural backstop. The
// hop budget inside the coordinator is the real loop guard; this only catches
// a miswired topology that cycles without consuming hops.
const stepCeiling = 256

// Run drives the state from the entry point to End, executing nodes strictly
// sequentially. Node errors and unresolved transitions abort the run.
func (c *Compiled) Run(ctx context.Context, state *core.State) error {
	current := c.entryPoint
	for steps := 0; ; steps++ {
		if steps >= stepCeiling {
			return fmt.Errorf("graph exceeded %d transitions without reaching %s", stepCeiling, End)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fn, ok := c.nodes[current]
		if !ok {
			return fmt.Errorf("unknown node %q", current)
		}
		c.logger.Debug("graph.node.start", "node", current, "hops", state.Hops)
		if err := fn(ctx, state); err != nil {
			return fmt.Errorf("node %q: %w", current, err)
		}
		next, err := c.next(current, state)
		if err != nil {
			return err
		}
		c.logger.Debug("graph.node.transition", "from", current, "to", next)
		if next == End {
			return nil
		}
		current = next
	}
}

func (c *Compiled) next(current string, state *core.State) (string, error) {
	if to, ok := c.edges[current]; ok {
		return to, nil
	}
	if ce, ok := c.conditional[current]; ok {
		label := ce.condition(state)
		to, ok := ce.mapping[label]
		if !ok {
			return "", fmt.Errorf("node %q: no mapping for route label %q", current, label)
		}
		return to, nil
	}
	return "", fmt.Errorf("node %q has no outgoing edge", current)
}
