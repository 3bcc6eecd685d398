// Package llm is the model access layer: it resolves provider credentials,
// constructs and caches chat-capable model handles and binds tool sets to a
// handle. The cache and registry are explicit constructor-injected
// components, shared by many concurrent turns: reads take an RLock and
// mutation is serialized, so a reader never observes a partially-constructed
// entry.
package llm

import (
	"context"
	"sync"

	"github.com/jonaskahn/lucas/config"
	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/model"
)

// Factory creates and caches model handles keyed by provider, model
// identifier and temperature. Identical configurations reuse the same handle.
type Factory struct {
	settings *config.Settings
	registry *Registry
	logger   logging.Logger

	mu    sync.RWMutex
	cache map[string]model.Model
}

// NewFactory constructs a Factory bound to the given settings.
func NewFactory(settings *config.Settings, logger logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Factory{
		settings: settings,
		registry: NewRegistry(),
		logger:   logger,
		cache:    map[string]model.Model{},
	}
}

// Registry exposes the provider registry for custom provider registration.
func (f *Factory) Registry() *Registry { return f.registry }

// CreateModel returns the handle for the configuration, building and caching
// it on first use. Missing credentials are resolved from settings by
// provider name (aliases included); an unknown provider or unresolvable
// credential is a ConfigError.
func (f *Factory) CreateModel(cfg Config) (model.Model, error) {
	key := cfg.CacheKey()

	f.mu.RLock()
	cached, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	provider := f.registry.Get(cfg.Provider)
	if provider == nil {
		return nil, &ConfigError{Provider: cfg.Provider, Reason: "unknown provider"}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = f.settings.APIKeyForProvider(cfg.Provider)
		if cfg.APIKey == "" {
			return nil, &ConfigError{Provider: cfg.Provider, Reason: "no API key configured"}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.cache[key]; ok { // lost the construction race
		return cached, nil
	}
	handle, err := provider.CreateModel(cfg)
	if err != nil {
		return nil, err
	}
	f.cache[key] = handle
	f.logger.Info("llm.model.created", "cache_key", key)
	return handle, nil
}

// BindTools returns a handle restricted to the given tool declarations:
// invoking it may emit at most the tools it was bound with.
func (f *Factory) BindTools(m model.Model, defs []model.ToolDefinition) *BoundModel {
	return NewBoundModel(m, defs)
}

// ClearCache drops every cached handle.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	f.cache = map[string]model.Model{}
	f.mu.Unlock()
	f.logger.Info("llm.cache.cleared")
}

// CacheStats reports basic cache metrics.
func (f *Factory) CacheStats() map[string]int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return map[string]int{"cached_models": len(f.cache)}
}

// BoundModel couples a model handle with a fixed tool set. Every invocation
// carries exactly these declarations, nothing more.
type BoundModel struct {
	model model.Model
	defs  []model.ToolDefinition
}

// NewBoundModel binds tool declarations to a handle.
func NewBoundModel(m model.Model, defs []model.ToolDefinition) *BoundModel {
	bound := make([]model.ToolDefinition, len(defs))
	copy(bound, defs)
	return &BoundModel{model: m, defs: bound}
}

// Invoke runs the conversation through the bound handle and returns the
// completion message. Parallel tool calls follow the parallel argument.
func (b *BoundModel) Invoke(ctx context.Context, messages []core.Message, parallel bool) (core.Message, error) {
	resp, err := model.Generate(ctx, b.model, model.Request{
		Messages:          messages,
		Tools:             b.defs,
		ParallelToolCalls: parallel,
	})
	if err != nil {
		return core.Message{}, err
	}
	return resp.Message, nil
}

// Model returns the underlying handle.
func (b *BoundModel) Model() model.Model { return b.model }

// ToolDefinitions returns a copy of the bound declarations.
func (b *BoundModel) ToolDefinitions() []model.ToolDefinition {
	out := make([]model.ToolDefinition, len(b.defs))
	copy(out, b.defs)
	return out
}
