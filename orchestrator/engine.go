// Package orchestrator drives one conversation turn through the routing
// graph: a coordinator decides where to go, control tools translate its
// decision into a routing token, plugin agents do the work and a finalizer
// produces the user-visible answer. The graph topology is rebuilt from the
// currently loaded plugin set and the whole turn runs under a hop budget.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonaskahn/lucas/config"
	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/graph"
	"github.com/jonaskahn/lucas/llm"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/plugin"
	"github.com/jonaskahn/lucas/tool"
)

// Static graph node names. Plugin node names are derived per bundle.
const (
	NodeCoordinator  = "coordinator"
	NodeControlTools = "control_tools"
	NodeFinalizer    = "finalizer"
)

// Route labels used by the engine's conditional edges.
const (
	routeTools = "tools"
	routeFinal = "final"
	routeEnd   = "end"
)

const apologyText = "I encountered an error processing your request."

// Options configures an Engine.
type Options struct {
	// MaxHops bounds coordinator and agent steps per turn. Zero means the
	// configured settings value; the result is clamped to the valid range.
	MaxHops int
	// Coordinator overrides the model configuration used for the
	// coordinator and finalizer steps.
	Coordinator *llm.Config
	Logger      logging.Logger
}

// WithMaxHops overrides the per-turn hop ceiling.
func WithMaxHops(n int) func(o *Options) {
	return func(o *Options) { o.MaxHops = n }
}

// WithCoordinatorModel overrides the coordinator's model configuration.
func WithCoordinatorModel(cfg llm.Config) func(o *Options) {
	return func(o *Options) { o.Coordinator = &cfg }
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Engine owns the routing graph and the turn entry points. The compiled
// graph, the coordinator binding and the routing-tool index are replaced
// together under the write lock by Rebuild; turns read them under RLock, so
// a reload mid-flight never exposes a half-built topology.
type Engine struct {
	settings *config.Settings
	factory  *llm.Factory
	registry *plugin.Registry
	maxHops  int
	coordCfg llm.Config
	logger   logging.Logger

	mu           sync.RWMutex
	compiled     *graph.Compiled
	coordinator  *llm.BoundModel
	routingTools map[string]tool.Tool
}

// NewEngine assembles the engine over an already-loaded registry and
// compiles the initial graph.
func NewEngine(settings *config.Settings, factory *llm.Factory, registry *plugin.Registry, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	maxHops := opts.MaxHops
	if maxHops == 0 {
		maxHops = settings.MaxHops
	}
	if maxHops < config.MinHops {
		maxHops = config.MinHops
	}
	if maxHops > config.MaxHopsCap {
		maxHops = config.MaxHopsCap
	}

	coordCfg := llm.Config{
		Provider: settings.DefaultProvider,
		Model:    llm.DefaultModelFor(settings.DefaultProvider),
	}
	if opts.Coordinator != nil {
		coordCfg = *opts.Coordinator
	}

	e := &Engine{
		settings: settings,
		factory:  factory,
		registry: registry,
		maxHops:  maxHops,
		coordCfg: coordCfg,
		logger:   opts.Logger,
	}
	if err := e.Rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

// MaxHops returns the per-turn hop ceiling.
func (e *Engine) MaxHops() int { return e.maxHops }

// Rebuild reconstructs the coordinator binding and the routing graph from
// the registry's current plugin set and swaps both in atomically. Call it
// after a registry reload.
func (e *Engine) Rebuild() error {
	handle, err := e.factory.CreateModel(e.coordCfg)
	if err != nil {
		return fmt.Errorf("coordinator model: %w", err)
	}

	routing := e.registry.RoutingTools()
	index := make(map[string]tool.Tool, len(routing))
	for _, t := range routing {
		index[t.Name()] = t
	}
	bound := e.factory.BindTools(handle, llm.ToolDefinitions(routing))

	compiled, err := e.buildGraph()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.compiled = compiled
	e.coordinator = bound
	e.routingTools = index
	e.mu.Unlock()

	e.logger.Info("engine.rebuild.complete",
		"plugins", len(e.registry.Available()),
		"max_hops", e.maxHops,
	)
	return nil
}

// buildGraph assembles the static core nodes plus the two-node template per
// loaded plugin and compiles the result.
func (e *Engine) buildGraph() (*graph.Compiled, error) {
	g := graph.New()
	if err := g.AddNode(NodeCoordinator, e.coordinatorNode); err != nil {
		return nil, err
	}
	if err := g.AddNode(NodeControlTools, e.controlToolsNode); err != nil {
		return nil, err
	}
	if err := g.AddNode(NodeFinalizer, e.finalizerNode); err != nil {
		return nil, err
	}

	controlMapping := map[string]string{routeFinal: NodeFinalizer}
	for _, b := range e.registry.Bundles() {
		agentNode := b.AgentNodeName()
		toolsNode := b.ToolsNodeName()
		if err := g.AddNode(agentNode, b.AgentNode()); err != nil {
			return nil, err
		}
		if err := g.AddNode(toolsNode, b.ToolsNode()); err != nil {
			return nil, err
		}
		if err := g.AddConditionalEdge(agentNode, e.agentContinue(b), map[string]string{
			plugin.RouteContinue: toolsNode,
			plugin.RouteBack:     NodeCoordinator,
		}); err != nil {
			return nil, err
		}
		if err := g.AddEdge(toolsNode, agentNode); err != nil {
			return nil, err
		}
		controlMapping[b.Metadata.Name] = agentNode
	}

	if err := g.AddConditionalEdge(NodeCoordinator, e.afterCoordinator, map[string]string{
		routeTools: NodeControlTools,
		routeFinal: NodeFinalizer,
		routeEnd:   graph.End,
	}); err != nil {
		return nil, err
	}
	if err := g.AddConditionalEdge(NodeControlTools, e.afterControlTools, controlMapping); err != nil {
		return nil, err
	}
	if err := g.AddEdge(NodeFinalizer, graph.End); err != nil {
		return nil, err
	}
	g.SetEntryPoint(NodeCoordinator)

	return g.Compile(e.logger)
}

// agentContinue wraps a bundle's continuation condition with the hop budget.
// An agent that still wants its tools after the budget is spent would
// otherwise cycle agent and tools steps unbounded; sending it back to the
// coordinator lets the forced-finalization path end the turn.
func (e *Engine) agentContinue(b *plugin.Bundle) graph.Condition {
	return func(state *core.State) string {
		if state.Hops >= e.maxHops {
			return plugin.RouteBack
		}
		return b.Continue(state)
	}
}

func (e *Engine) snapshot() (*graph.Compiled, *llm.BoundModel, map[string]tool.Tool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.compiled, e.coordinator, e.routingTools
}

// Invoke runs one conversation turn to completion. Any internal failure is
// absorbed at this boundary: the returned state carries a generic apology
// message, an incremented hop count and the fault in its Err field. The
// turn never surfaces an error to the caller.
func (e *Engine) Invoke(ctx context.Context, state *core.State) *core.State {
	if state == nil {
		state = core.NewState()
	}
	start := state.Hops
	compiled, _, _ := e.snapshot()
	if err := compiled.Run(ctx, state); err != nil {
		e.logger.Error("engine.turn.failed", "session_id", state.SessionID, "error", err.Error())
		state.AppendMessages(core.NewAssistantMessage(apologyText))
		state.IncrementHops()
		state.Err = err
		return state
	}
	// A turn that entered with its budget already spent runs only the forced
	// finalization path, which does not count a hop. The counter still has
	// to advance at least once per turn.
	if state.Hops == start {
		state.IncrementHops()
	}
	return state
}

// InvokeAsync runs one turn on its own goroutine and delivers the final
// state on the returned channel. Failure behavior matches Invoke.
func (e *Engine) InvokeAsync(ctx context.Context, state *core.State) <-chan *core.State {
	out := make(chan *core.State, 1)
	go func() {
		defer close(out)
		out <- e.Invoke(ctx, state)
	}()
	return out
}
