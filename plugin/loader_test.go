package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticLoader_Load(t *testing.T) {
	loader := NewStaticLoader()
	loader.RegisterFactory("search", func() Plugin { return newTestPlugin("search") })

	dir := writeManifest(t, t.TempDir(), "search", "search")
	p, err := loader.Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "search", p.Metadata().Name)
}

func TestStaticLoader_MetadataOverride(t *testing.T) {
	loader := NewStaticLoader()
	loader.RegisterFactory("search", func() Plugin { return newTestPlugin("search") })

	dir := filepath.Join(t.TempDir(), "search")
	assert.NoError(t, os.MkdirAll(dir, 0o755))
	raw := `entry: search
metadata:
  name: websearch
  version: 2.0.0
  description: Overridden description
  agent_type: general
`
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(raw), 0o600))

	p, err := loader.Load(dir)
	assert.NoError(t, err)
	meta := p.Metadata()
	assert.Equal(t, "websearch", meta.Name)
	assert.Equal(t, "2.0.0", meta.Version)
	assert.Equal(t, AgentTypeGeneral, meta.AgentType)

	// the agent factory is still the registered one
	assert.NotNil(t, p.CreateAgent())
}

func TestStaticLoader_Errors(t *testing.T) {
	loader := NewStaticLoader()

	// unregistered entry
	dir := writeManifest(t, t.TempDir(), "ghost", "ghost")
	_, err := loader.Load(dir)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "ghost", loadErr.Dir)

	// manifest without an entry
	dir2 := filepath.Join(t.TempDir(), "empty")
	assert.NoError(t, os.MkdirAll(dir2, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir2, "plugin.yaml"), []byte("metadata: {}\n"), 0o600))
	_, err = loader.Load(dir2)
	assert.ErrorContains(t, err, "missing entry")

	// invalid metadata override
	loader.RegisterFactory("search", func() Plugin { return newTestPlugin("search") })
	dir3 := filepath.Join(t.TempDir(), "search")
	assert.NoError(t, os.MkdirAll(dir3, 0o755))
	raw := "entry: search\nmetadata:\n  name: x\n  version: \"\"\n"
	assert.NoError(t, os.WriteFile(filepath.Join(dir3, "plugin.yaml"), []byte(raw), 0o600))
	_, err = loader.Load(dir3)
	assert.ErrorContains(t, err, "version")
}

func TestLoadError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &LoadError{Dir: "p", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "p")
}

func TestRoutingTools_ZeroArgumentSchemas(t *testing.T) {
	gt := NewGotoTool("search", "Searches the web")
	assert.Equal(t, "goto_search", gt.Name())
	assert.Contains(t, gt.Description(), "Searches the web")
	params := gt.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Empty(t, params["properties"])

	ft := NewFinalizeTool()
	assert.Equal(t, "finalize", ft.Name())
	assert.Equal(t, "object", ft.Parameters()["type"])
}
