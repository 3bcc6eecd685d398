// Package lucas provides a high-level façade over the orchestration engine,
// plugin registry, model access layer and session storage, enabling rapid
// construction of plugin-driven multi-agent assistants. Most applications
// interact with this package by:
//  1. Creating a Lucas via New() (optionally overriding settings, loader,
//     session store or logger)
//  2. Loading plugins (LoadPlugins, or registering static factories first)
//  3. Running turns per session (Chat) or against a raw state (Invoke)
//
// The façade delegates turn execution to orchestrator.Engine while keeping
// setup ergonomics concise. All defaults are safe for local development;
// production deployments typically supply a configuration file and a
// structured logger.
package lucas

import (
	"context"
	"fmt"

	"github.com/jonaskahn/lucas/config"
	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/llm"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/orchestrator"
	"github.com/jonaskahn/lucas/plugin"
	"github.com/jonaskahn/lucas/session"
)

// Options configures the Lucas instance.
type Options struct {
	// Settings holds the configuration surface (provider, credentials,
	// plugins root, hop ceiling). Defaults to config.Default().
	Settings *config.Settings

	// Loader resolves plugin directories into plugins. Defaults to the
	// shared-object loader; tests and single-binary deployments typically
	// supply a StaticLoader.
	Loader plugin.Loader

	// SessionStore persists conversation history across turns. Defaults to
	// an in-memory store.
	SessionStore session.Store

	// MaxHops overrides the settings hop ceiling when non-zero.
	MaxHops int

	// Logger defaults to the NoOp logger.
	Logger logging.Logger
}

// Lucas is the high-level façade aggregating the engine and its services.
type Lucas struct {
	settings *config.Settings
	factory  *llm.Factory
	registry *plugin.Registry
	engine   *orchestrator.Engine
	sessions session.Store
	logger   logging.Logger
}

// New wires settings, the model factory, the plugin registry and the engine
// together. Plugins are discovered and loaded before the graph is compiled;
// load failures of individual plugins are absorbed by the registry's
// partial-failure semantics and surface through Health.
func New(optFns ...func(o *Options)) (*Lucas, error) {
	opts := Options{
		Settings:     config.Default(),
		Loader:       plugin.NewSharedObjectLoader(),
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	factory := llm.NewFactory(opts.Settings, opts.Logger)
	registry := plugin.NewRegistry(opts.Settings, factory, func(o *plugin.RegistryOptions) {
		o.Loader = opts.Loader
		o.Logger = opts.Logger
	})
	registry.LoadAll()

	engine, err := orchestrator.NewEngine(opts.Settings, factory, registry,
		orchestrator.WithMaxHops(opts.MaxHops),
		orchestrator.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &Lucas{
		settings: opts.Settings,
		factory:  factory,
		registry: registry,
		engine:   engine,
		sessions: opts.SessionStore,
		logger:   opts.Logger,
	}, nil
}

// Registry exposes the plugin registry for inspection and static setup.
func (l *Lucas) Registry() *plugin.Registry { return l.registry }

// Engine exposes the underlying orchestration engine.
func (l *Lucas) Engine() *orchestrator.Engine { return l.engine }

// Factory exposes the model access layer.
func (l *Lucas) Factory() *llm.Factory { return l.factory }

// Health re-classifies every loaded plugin and returns the verdicts.
func (l *Lucas) Health() map[string]bool { return l.registry.HealthCheck() }

// RegisterPlugin loads an in-process plugin and recompiles the routing
// graph to include it.
func (l *Lucas) RegisterPlugin(p plugin.Plugin) error {
	if err := l.registry.RegisterPlugin(p); err != nil {
		return err
	}
	return l.engine.Rebuild()
}

// Reload re-runs plugin discovery and loading, then recompiles the routing
// graph against the new plugin set.
func (l *Lucas) Reload() error {
	l.registry.Reload()
	return l.engine.Rebuild()
}

// Invoke runs one turn against a caller-owned state. Failures degrade to an
// apology message in the returned state, never an error.
func (l *Lucas) Invoke(ctx context.Context, state *core.State) *core.State {
	return l.engine.Invoke(ctx, state)
}

// Chat runs one turn within a stored session: prior history is prepended,
// the user text appended, and the updated history written back. The reply
// is the turn's final assistant message.
func (l *Lucas) Chat(ctx context.Context, sessionID, text string) (string, error) {
	sess, err := l.sessions.Get(sessionID)
	if err != nil {
		return "", fmt.Errorf("session %q: %w", sessionID, err)
	}

	state := core.NewState(sess.Messages...)
	state.SessionID = sessionID
	state.AppendMessages(core.NewUserMessage(text))

	state = l.engine.Invoke(ctx, state)

	sess.Messages = state.Messages
	sess.PluginContext = state.PluginContext
	sess.Turns++
	if err := l.sessions.Save(sess); err != nil {
		return "", fmt.Errorf("session %q: %w", sessionID, err)
	}

	last, ok := state.LastMessage()
	if !ok {
		return "", fmt.Errorf("turn produced no messages")
	}
	return last.Text, nil
}
