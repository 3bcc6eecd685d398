package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonaskahn/lucas/config"
	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/model"
)

// countingProvider returns a fresh mock handle per construction so cache
// behavior is observable.
type countingProvider struct {
	built int
}

func (p *countingProvider) CreateModel(cfg Config) (model.Model, error) {
	p.built++
	return model.NewMockModel(cfg.Model, cfg.Provider), nil
}

func testSettings() *config.Settings {
	s := config.Default()
	s.OpenAIAPIKey = "sk-test"
	return s
}

func TestFactory_CachesByProviderModelTemperature(t *testing.T) {
	f := NewFactory(testSettings(), nil)
	p := &countingProvider{}
	f.Registry().Register("openai", p)

	cfg := Config{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.2}
	first, err := f.CreateModel(cfg)
	assert.NoError(t, err)
	second, err := f.CreateModel(cfg)
	assert.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, p.built)

	// a different temperature is a different handle
	cfg.Temperature = 0.7
	third, err := f.CreateModel(cfg)
	assert.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, p.built)

	assert.Equal(t, map[string]int{"cached_models": 2}, f.CacheStats())
	f.ClearCache()
	assert.Equal(t, map[string]int{"cached_models": 0}, f.CacheStats())
}

func TestFactory_UnknownProvider(t *testing.T) {
	f := NewFactory(testSettings(), nil)
	_, err := f.CreateModel(Config{Provider: "azure", Model: "gpt-4"})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "azure", cfgErr.Provider)
	assert.Contains(t, cfgErr.Reason, "unknown provider")
}

func TestFactory_MissingCredential(t *testing.T) {
	s := config.Default() // no keys configured
	f := NewFactory(s, nil)
	_, err := f.CreateModel(Config{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022"})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "no API key")
}

func TestFactory_CredentialAliases(t *testing.T) {
	s := config.Default()
	s.AnthropicAPIKey = "sk-ant"
	f := NewFactory(s, nil)
	p := &countingProvider{}
	f.Registry().Register("claude", p)

	_, err := f.CreateModel(Config{Provider: "claude", Model: "claude-3-5-sonnet-20241022"})
	assert.NoError(t, err)
	assert.Equal(t, 1, p.built)
}

func TestBoundModel_Invoke(t *testing.T) {
	mock := model.NewMockModel("test", "mock")
	mock.EnqueueText("bound reply")

	defs := []model.ToolDefinition{{Name: "lookup", Description: "d", Parameters: map[string]any{"type": "object"}}}
	f := NewFactory(testSettings(), nil)
	bound := f.BindTools(mock, defs)

	msg, err := bound.Invoke(context.Background(), []core.Message{core.NewUserMessage("hi")}, false)
	assert.NoError(t, err)
	assert.Equal(t, "bound reply", msg.Text)

	reqs := mock.Requests()
	assert.Len(t, reqs, 1)
	// the bound handle carries exactly its tool declarations
	assert.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "lookup", reqs[0].Tools[0].Name)
	assert.False(t, reqs[0].ParallelToolCalls)

	// mutating the input defs does not affect the binding
	defs[0].Name = "mutated"
	assert.Equal(t, "lookup", bound.ToolDefinitions()[0].Name)
}

func TestDefaultModelFor(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", DefaultModelFor("openai"))
	assert.Equal(t, DefaultModelFor("anthropic"), DefaultModelFor("claude"))
	assert.Equal(t, DefaultModelFor("google"), DefaultModelFor("gemini"))
}
