package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "openai", s.DefaultProvider)
	assert.Equal(t, "./plugins", s.PluginsDir)
	assert.Equal(t, DefaultHops, s.MaxHops)
	assert.NoError(t, s.Validate())
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "openai", s.DefaultProvider)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	raw := "default_provider: anthropic\nmax_hops: 5\nplugins_dir: /opt/plugins\n"
	assert.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("LUCAS_MAX_HOPS", "7")
	t.Setenv("LUCAS_ANTHROPIC_API_KEY", "sk-test")

	s, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", s.DefaultProvider)
	assert.Equal(t, "/opt/plugins", s.PluginsDir)
	// env wins over the file
	assert.Equal(t, 7, s.MaxHops)
	assert.Equal(t, "sk-test", s.AnthropicAPIKey)
}

func TestValidate_Bounds(t *testing.T) {
	s := Default()

	s.MaxHops = 0
	assert.Error(t, s.Validate())
	s.MaxHops = MaxHopsCap + 1
	assert.Error(t, s.Validate())
	s.MaxHops = MaxHopsCap
	assert.NoError(t, s.Validate())

	s.DefaultProvider = "azure"
	assert.Error(t, s.Validate())
}

func TestAPIKeyForProvider_Aliases(t *testing.T) {
	s := Default()
	s.OpenAIAPIKey = "oa"
	s.AnthropicAPIKey = "an"
	s.GoogleAPIKey = "go"

	assert.Equal(t, "oa", s.APIKeyForProvider("openai"))
	assert.Equal(t, "an", s.APIKeyForProvider("anthropic"))
	assert.Equal(t, "an", s.APIKeyForProvider("claude"))
	assert.Equal(t, "go", s.APIKeyForProvider("google"))
	assert.Equal(t, "go", s.APIKeyForProvider("gemini"))
	assert.Equal(t, "", s.APIKeyForProvider("azure"))

	assert.True(t, s.HasCredentials("claude"))
	assert.False(t, s.HasCredentials("azure"))
}
