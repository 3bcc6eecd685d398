package llm

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/jonaskahn/lucas/model"
	"github.com/jonaskahn/lucas/model/anthropic"
	"github.com/jonaskahn/lucas/model/openai"
)

// geminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config describes one model handle: which provider, which model identifier
// and the sampling parameters. Identical configs resolve to the same cached
// handle.
type Config struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int64   `json:"max_tokens"`
	APIKey      string  `json:"-"`
}

// CacheKey returns the composite cache key for this configuration.
// Credentials and token limits do not participate: two configs differing
// only in those fields still denote the same handle.
func (c Config) CacheKey() string {
	return fmt.Sprintf("%s:%s:%g", c.Provider, c.Model, c.Temperature)
}

// ConfigError marks construction failures caused by configuration: unknown
// provider or unresolvable credentials.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("model configuration error for provider %q: %s", e.Provider, e.Reason)
}

// Provider constructs chat-capable model handles for one vendor.
type Provider interface {
	// CreateModel builds a model handle from the configuration. The config
	// carries an already-resolved API key.
	CreateModel(cfg Config) (model.Model, error)
}

type openAIProvider struct{}

func (openAIProvider) CreateModel(cfg Config) (model.Model, error) {
	return openai.NewModel(func(o *openai.Options) {
		o.Model = cfg.Model
		o.Temperature = cfg.Temperature
		if cfg.MaxTokens > 0 {
			o.MaxCompletionTokens = cfg.MaxTokens
		}
		o.APIKey = cfg.APIKey
	}), nil
}

type anthropicProvider struct{}

func (anthropicProvider) CreateModel(cfg Config) (model.Model, error) {
	return anthropic.NewModel(func(o *anthropic.Options) {
		o.Model = anthropicsdk.Model(cfg.Model)
		o.Temperature = cfg.Temperature
		if cfg.MaxTokens > 0 {
			o.MaxTokens = cfg.MaxTokens
		}
		o.APIKey = cfg.APIKey
	}), nil
}

// googleProvider drives Gemini models through Google's OpenAI-compatible
// endpoint using the openai adapter with a base URL override.
type googleProvider struct{}

func (googleProvider) CreateModel(cfg Config) (model.Model, error) {
	return openai.NewModel(func(o *openai.Options) {
		o.Model = cfg.Model
		o.Temperature = cfg.Temperature
		if cfg.MaxTokens > 0 {
			o.MaxCompletionTokens = cfg.MaxTokens
		}
		o.APIKey = cfg.APIKey
		o.BaseURL = geminiBaseURL
		o.Provider = "google"
	}), nil
}

// Registry maps provider names and their documented aliases to Provider
// implementations. "claude" is an alias of "anthropic"; "gemini" is an
// alias of "google".
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry pre-populated with the built-in providers
// and aliases.
func NewRegistry() *Registry {
	openAI := openAIProvider{}
	anthropicP := anthropicProvider{}
	google := googleProvider{}
	return &Registry{providers: map[string]Provider{
		"openai":    openAI,
		"anthropic": anthropicP,
		"claude":    anthropicP,
		"google":    google,
		"gemini":    google,
	}}
}

// Register adds or replaces a provider under the given name.
func (r *Registry) Register(name string, p Provider) { r.providers[name] = p }

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider { return r.providers[name] }

// Available lists registered provider names including aliases.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
