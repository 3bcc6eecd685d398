// Package config loads and validates the runtime configuration consumed by
// the orchestration engine and the plugin registry at construction time.
// Values come from an optional YAML file overridden by LUCAS_-prefixed
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LUCAS_"

// Hop ceiling bounds. The hop budget is clamped to this range at validation.
const (
	MinHops     = 1
	MaxHopsCap  = 50
	DefaultHops = 10
)

// Settings is the full runtime configuration surface.
type Settings struct {
	AppName string `yaml:"app_name"`
	Debug   bool   `yaml:"debug"`

	DefaultProvider string `yaml:"default_provider"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GoogleAPIKey    string `yaml:"google_api_key"`

	PluginsDir string `yaml:"plugins_dir"`
	MaxHops    int    `yaml:"max_hops"`
}

// Default returns the baseline settings before file and environment overrides.
func Default() *Settings {
	return &Settings{
		AppName:         "Lucas Multi-Agent System",
		DefaultProvider: "openai",
		PluginsDir:      "./plugins",
		MaxHops:         DefaultHops,
	}
}

// Load builds Settings from defaults, an optional YAML file (path may be
// empty or missing, which is not an error) and environment overrides, then
// validates the result.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, s); err != nil {
				return nil, fmt.Errorf("parse settings file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read settings file %s: %w", path, err)
		}
	}
	s.applyEnv()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	getenv := func(key string) (string, bool) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		return v, ok
	}
	if v, ok := getenv("APP_NAME"); ok {
		s.AppName = v
	}
	if v, ok := getenv("DEBUG"); ok {
		s.Debug, _ = strconv.ParseBool(v)
	}
	if v, ok := getenv("DEFAULT_PROVIDER"); ok {
		s.DefaultProvider = v
	}
	if v, ok := getenv("OPENAI_API_KEY"); ok {
		s.OpenAIAPIKey = v
	}
	if v, ok := getenv("ANTHROPIC_API_KEY"); ok {
		s.AnthropicAPIKey = v
	}
	if v, ok := getenv("GOOGLE_API_KEY"); ok {
		s.GoogleAPIKey = v
	}
	if v, ok := getenv("PLUGINS_DIR"); ok {
		s.PluginsDir = v
	}
	if v, ok := getenv("MAX_HOPS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxHops = n
		}
	}
}

// Validate checks the provider is supported and the hop ceiling stays within
// its documented bounds.
func (s *Settings) Validate() error {
	supported := []string{"openai", "anthropic", "google"}
	ok := false
	for _, p := range supported {
		if s.DefaultProvider == p {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("unsupported default provider %q, supported: %s",
			s.DefaultProvider, strings.Join(supported, ", "))
	}
	if s.MaxHops < MinHops || s.MaxHops > MaxHopsCap {
		return fmt.Errorf("max_hops %d out of range [%d, %d]", s.MaxHops, MinHops, MaxHopsCap)
	}
	return nil
}

// APIKeyForProvider returns the credential for a provider name or alias.
// "claude" resolves to the Anthropic key and "gemini" to the Google key.
func (s *Settings) APIKeyForProvider(provider string) string {
	switch provider {
	case "openai":
		return s.OpenAIAPIKey
	case "anthropic", "claude":
		return s.AnthropicAPIKey
	case "google", "gemini":
		return s.GoogleAPIKey
	default:
		return ""
	}
}

// HasCredentials reports whether a non-empty key is configured for the provider.
func (s *Settings) HasCredentials(provider string) bool {
	return strings.TrimSpace(s.APIKeyForProvider(provider)) != ""
}
