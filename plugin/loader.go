package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"
	"sync"

	"gopkg.in/yaml.v3"
)

// LoadError wraps a failure while loading one plugin directory. The directory
// name keys the registry's failed set.
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load plugin %s: %v", e.Dir, e.Err) }

// Unwrap exposes the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Loader resolves a plugin directory into a Plugin value. Implementations
// define which entry-point file marks a directory as a plugin during
// discovery.
type Loader interface {
	// EntryFile returns the file name whose presence marks a plugin directory.
	EntryFile() string

	// Load builds the Plugin from the directory. Any error aborts loading
	// of that plugin only.
	Load(dir string) (Plugin, error)
}

// SharedObjectLoader loads plugins compiled with -buildmode=plugin. The
// entry point is plugin.so; the shared object must export a Metadata
// accessor and an agent factory:
//
//	func GetMetadata() plugin.Metadata
//	func CreateAgent() plugin.Agent
type SharedObjectLoader struct{}

// NewSharedObjectLoader constructs the shared-object loader.
func NewSharedObjectLoader() *SharedObjectLoader { return &SharedObjectLoader{} }

// EntryFile implements Loader.
func (l *SharedObjectLoader) EntryFile() string { return "plugin.so" }

// Load implements Loader using the stdlib plugin package.
func (l *SharedObjectLoader) Load(dir string) (Plugin, error) {
	so, err := goplugin.Open(filepath.Join(dir, l.EntryFile()))
	if err != nil {
		return nil, &LoadError{Dir: filepath.Base(dir), Err: err}
	}

	metaSym, err := so.Lookup("GetMetadata")
	if err != nil {
		return nil, &LoadError{Dir: filepath.Base(dir), Err: fmt.Errorf("missing GetMetadata: %w", err)}
	}
	metaFn, ok := metaSym.(func() Metadata)
	if !ok {
		return nil, &LoadError{Dir: filepath.Base(dir), Err: fmt.Errorf("GetMetadata has wrong signature")}
	}

	agentSym, err := so.Lookup("CreateAgent")
	if err != nil {
		return nil, &LoadError{Dir: filepath.Base(dir), Err: fmt.Errorf("missing CreateAgent: %w", err)}
	}
	agentFn, ok := agentSym.(func() Agent)
	if !ok {
		return nil, &LoadError{Dir: filepath.Base(dir), Err: fmt.Errorf("CreateAgent has wrong signature")}
	}

	return &funcPlugin{metadata: metaFn, createAgent: agentFn}, nil
}

// funcPlugin adapts the two accessor functions into the Plugin contract.
type funcPlugin struct {
	metadata    func() Metadata
	createAgent func() Agent
}

func (p *funcPlugin) Metadata() Metadata { return p.metadata() }
func (p *funcPlugin) CreateAgent() Agent { return p.createAgent() }

// manifest is the on-disk descriptor read by the StaticLoader.
type manifest struct {
	Entry    string    `yaml:"entry"`
	Metadata *Metadata `yaml:"metadata,omitempty"`
}

// StaticLoader resolves plugins from compiled-in factories selected by a
// plugin.yaml manifest. The manifest names the registered factory and may
// override the factory's metadata. This is the loader of choice for
// single-binary deployments and tests, where shared objects are impractical.
type StaticLoader struct {
	mu        sync.RWMutex
	factories map[string]func() Plugin
}

// NewStaticLoader constructs an empty static loader.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{factories: map[string]func() Plugin{}}
}

// RegisterFactory registers a plugin factory under an entry name referenced
// by plugin.yaml manifests.
func (l *StaticLoader) RegisterFactory(entry string, factory func() Plugin) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[entry] = factory
}

// EntryFile implements Loader.
func (l *StaticLoader) EntryFile() string { return "plugin.yaml" }

// Load implements Loader by reading the manifest and invoking the named
// factory. A metadata block in the manifest overrides the factory metadata.
func (l *StaticLoader) Load(dir string) (Plugin, error) {
	base := filepath.Base(dir)
	raw, err := os.ReadFile(filepath.Join(dir, l.EntryFile()))
	if err != nil {
		return nil, &LoadError{Dir: base, Err: err}
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, &LoadError{Dir: base, Err: fmt.Errorf("parse manifest: %w", err)}
	}
	if m.Entry == "" {
		return nil, &LoadError{Dir: base, Err: fmt.Errorf("manifest missing entry")}
	}

	l.mu.RLock()
	factory, ok := l.factories[m.Entry]
	l.mu.RUnlock()
	if !ok {
		return nil, &LoadError{Dir: base, Err: fmt.Errorf("no factory registered for entry %q", m.Entry)}
	}

	p := factory()
	if m.Metadata == nil {
		return p, nil
	}
	override := *m.Metadata
	if err := override.Validate(); err != nil {
		return nil, &LoadError{Dir: base, Err: err}
	}
	return &overridePlugin{Plugin: p, meta: override}, nil
}

// overridePlugin substitutes manifest metadata for the factory's own.
type overridePlugin struct {
	Plugin
	meta Metadata
}

func (p *overridePlugin) Metadata() Metadata { return p.meta }
