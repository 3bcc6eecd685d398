package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jonaskahn/lucas/config"
	"github.com/jonaskahn/lucas/llm"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/tool"
)

// Validator optionally screens a plugin directory before loading. A
// non-empty result aborts loading of that plugin only. The built-in
// pipeline treats validation as advisory structure checking, not an
// enforcement boundary.
type Validator interface {
	ValidateDir(dir string) []string
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Loader    Loader
	Validator Validator
	Logger    logging.Logger
}

// Registry discovers, validates and loads plugins, tracks their health and
// synthesizes the coordinator's routing tools. The bundle map is shared by
// concurrent turns: reads take an RLock, loading and reload swap under the
// write lock, so readers never observe a partially-built set.
type Registry struct {
	pluginsDir string
	factory    *llm.Factory
	settings   *config.Settings
	loader     Loader
	validator  Validator
	logger     logging.Logger

	mu      sync.RWMutex
	bundles map[string]*Bundle
	healthy map[string]struct{}
	failed  map[string]struct{}
}

// NewRegistry constructs a Registry rooted at settings.PluginsDir. The
// loader defaults to the shared-object loader.
func NewRegistry(settings *config.Settings, factory *llm.Factory, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Loader: NewSharedObjectLoader(), Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Registry{
		pluginsDir: settings.PluginsDir,
		factory:    factory,
		settings:   settings,
		loader:     opts.Loader,
		validator:  opts.Validator,
		logger:     opts.Logger,
		bundles:    map[string]*Bundle{},
		healthy:    map[string]struct{}{},
		failed:     map[string]struct{}{},
	}
}

// Discover enumerates immediate subdirectories of the plugins root that
// contain the loader's entry-point file. A missing root yields an empty
// result with a logged warning, not an error.
func (r *Registry) Discover() []string {
	entries, err := os.ReadDir(r.pluginsDir)
	if err != nil {
		r.logger.Warn("plugin.discover.missing_root", "dir", r.pluginsDir, "error", err.Error())
		return nil
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.pluginsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, r.loader.EntryFile())); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	r.logger.Info("plugin.discover.complete", "count", len(dirs))
	return dirs
}

// LoadAll discovers and loads every plugin. A failure loading one plugin is
// recorded under its directory name and never aborts the siblings: the
// registry always ends with the usable subset loaded.
func (r *Registry) LoadAll() {
	dirs := r.Discover()
	loaded := 0
	for _, dir := range dirs {
		if err := r.LoadOne(dir); err != nil {
			r.logger.Error("plugin.load.failed", "dir", dir, "error", err.Error())
			r.mu.Lock()
			r.failed[filepath.Base(dir)] = struct{}{}
			r.mu.Unlock()
			continue
		}
		loaded++
	}
	r.logger.Info("plugin.load.summary", "loaded", loaded, "discovered", len(dirs))
}

// LoadOne validates, loads and registers a single plugin directory.
func (r *Registry) LoadOne(dir string) error {
	bundle, err := r.buildBundle(dir)
	if err != nil {
		return err
	}
	name := bundle.Metadata.Name
	r.mu.Lock()
	r.bundles[name] = bundle
	r.healthy[name] = struct{}{}
	delete(r.failed, name)
	r.mu.Unlock()

	r.logger.Info("plugin.load.success",
		"plugin", name,
		"version", bundle.Metadata.Version,
		"tools", len(bundle.Tools),
	)
	return nil
}

// buildBundle performs the full per-plugin load pipeline without touching
// the registry maps.
func (r *Registry) buildBundle(dir string) (*Bundle, error) {
	base := filepath.Base(dir)

	if r.validator != nil {
		if problems := r.validator.ValidateDir(dir); len(problems) > 0 {
			return nil, &LoadError{Dir: base, Err: fmt.Errorf("validation failed: %v", problems)}
		}
	}

	p, err := r.loader.Load(dir)
	if err != nil {
		return nil, err
	}
	bundle, err := r.bundleFromPlugin(p)
	if err != nil {
		return nil, &LoadError{Dir: base, Err: err}
	}
	return bundle, nil
}

// bundleFromPlugin runs the directory-independent part of the pipeline:
// dependency and metadata validation, model creation, tool binding and
// agent initialization.
func (r *Registry) bundleFromPlugin(p Plugin) (*Bundle, error) {
	if problems := ValidateDependencies(p); len(problems) > 0 {
		return nil, fmt.Errorf("dependency validation failed: %v", problems)
	}

	meta := p.Metadata()
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	agent := p.CreateAgent()
	if agent == nil {
		return nil, fmt.Errorf("plugin produced a nil agent")
	}

	handle, err := r.factory.CreateModel(r.modelConfig(meta))
	if err != nil {
		return nil, err
	}

	tools := agent.Tools()
	bound := r.factory.BindTools(handle, llm.ToolDefinitions(tools))
	if err := agent.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return NewBundle(meta, agent, bound, tools, r.logger), nil
}

// RegisterPlugin loads an in-process plugin instance, bypassing discovery.
// Useful for statically linked plugins and tests.
func (r *Registry) RegisterPlugin(p Plugin) error {
	bundle, err := r.bundleFromPlugin(p)
	if err != nil {
		return err
	}
	name := bundle.Metadata.Name
	r.mu.Lock()
	r.bundles[name] = bundle
	r.healthy[name] = struct{}{}
	delete(r.failed, name)
	r.mu.Unlock()

	r.logger.Info("plugin.register.success", "plugin", name, "tools", len(bundle.Tools))
	return nil
}

// modelConfig derives a model configuration from the plugin's declared
// requirements, defaulting each field independently.
func (r *Registry) modelConfig(meta Metadata) llm.Config {
	reqs := meta.ModelRequirements
	cfg := llm.Config{
		Provider:  reqs.Provider,
		Model:     reqs.Model,
		MaxTokens: reqs.MaxTokens,
	}
	if cfg.Provider == "" {
		cfg.Provider = r.settings.DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModelFor(cfg.Provider)
	}
	if reqs.Temperature != nil {
		cfg.Temperature = *reqs.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return cfg
}

// Bundle returns a loaded bundle by plugin name.
func (r *Registry) Bundle(name string) (*Bundle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[name]
	return b, ok
}

// Bundles returns the loaded bundles sorted by plugin name.
func (r *Registry) Bundles() []*Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Bundle, 0, len(r.bundles))
	for _, b := range r.bundles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata.Name < out[j].Metadata.Name })
	return out
}

// IsLoaded reports whether a plugin name is currently loaded.
func (r *Registry) IsLoaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bundles[name]
	return ok
}

// Available lists loaded plugin names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bundles))
	for name := range r.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoutingInfo returns the routing description per loaded plugin, used to
// build the coordinator prompt.
func (r *Registry) RoutingInfo() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := make(map[string]string, len(r.bundles))
	for name, b := range r.bundles {
		info[name] = b.Metadata.RoutingDescription()
	}
	return info
}

// AllTools returns every plugin's tools keyed by plugin name.
func (r *Registry) AllTools() map[string][]tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]tool.Tool, len(r.bundles))
	for name, b := range r.bundles {
		out[name] = append([]tool.Tool(nil), b.Tools...)
	}
	return out
}

// RoutingTools synthesizes the coordinator's tool set: one goto tool per
// loaded plugin in sorted name order plus the finalize tool. Given the same
// loaded-plugin set the synthesis is deterministic.
func (r *Registry) RoutingTools() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bundles))
	for name := range r.bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]tool.Tool, 0, len(names)+1)
	for _, name := range names {
		tools = append(tools, NewGotoTool(name, r.bundles[name].Metadata.RoutingDescription()))
	}
	return append(tools, NewFinalizeTool())
}

// HealthCheck re-classifies every loaded plugin between the healthy and
// failed sets and returns the per-plugin verdicts. It is idempotent and
// never unloads a plugin.
func (r *Registry) HealthCheck() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]bool, len(r.bundles))
	for name, b := range r.bundles {
		ok := b.Healthy()
		results[name] = ok
		if ok {
			r.healthy[name] = struct{}{}
			delete(r.failed, name)
		} else {
			r.failed[name] = struct{}{}
			delete(r.healthy, name)
		}
	}
	return results
}

// HealthSets returns copies of the healthy and failed name sets.
func (r *Registry) HealthSets() (healthy, failed []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.healthy {
		healthy = append(healthy, name)
	}
	for name := range r.failed {
		failed = append(failed, name)
	}
	sort.Strings(healthy)
	sort.Strings(failed)
	return healthy, failed
}

// Reload re-runs discovery and loading into a fresh bundle set, then swaps
// it in atomically: callers holding the read lock always see the previous
// complete set or the new one, never an empty in-between.
func (r *Registry) Reload() {
	dirs := r.Discover()
	newBundles := map[string]*Bundle{}
	newHealthy := map[string]struct{}{}
	newFailed := map[string]struct{}{}
	for _, dir := range dirs {
		bundle, err := r.buildBundle(dir)
		if err != nil {
			r.logger.Error("plugin.reload.failed", "dir", dir, "error", err.Error())
			newFailed[filepath.Base(dir)] = struct{}{}
			continue
		}
		newBundles[bundle.Metadata.Name] = bundle
		newHealthy[bundle.Metadata.Name] = struct{}{}
	}

	r.mu.Lock()
	r.bundles = newBundles
	r.healthy = newHealthy
	r.failed = newFailed
	r.mu.Unlock()

	r.logger.Info("plugin.reload.complete", "loaded", len(newBundles), "failed", len(newFailed))
}
