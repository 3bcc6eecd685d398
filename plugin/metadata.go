package plugin

import (
	"fmt"
	"strings"
)

// AgentType categorizes a plugin agent. The set is fixed; metadata
// construction rejects anything else.
type AgentType string

const (
	// AgentTypeSpecialized marks agents focused on a narrow capability area.
	AgentTypeSpecialized AgentType = "specialized"
	// AgentTypeGeneral marks broadly applicable agents.
	AgentTypeGeneral AgentType = "general"
	// AgentTypeUtility marks supporting agents (formatting, conversion, ...).
	AgentTypeUtility AgentType = "utility"
)

func (t AgentType) valid() bool {
	switch t {
	case AgentTypeSpecialized, AgentTypeGeneral, AgentTypeUtility:
		return true
	default:
		return false
	}
}

// ModelRequirements carries a plugin's optional model hints. Zero values
// mean "use the default": each field is defaulted independently when the
// registry derives the model configuration.
type ModelRequirements struct {
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int64    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Metadata is the immutable descriptor of one plugin. Name doubles as the
// graph-node key fragment (<name>_agent, <name>_tools) and the routing
// target, so it must be unique among loaded plugins.
type Metadata struct {
	Name              string            `json:"name" yaml:"name"`
	Version           string            `json:"version" yaml:"version"`
	Description       string            `json:"description" yaml:"description"`
	Capabilities      []string          `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	AgentType         AgentType         `json:"agent_type" yaml:"agent_type"`
	ModelRequirements ModelRequirements `json:"model_requirements,omitempty" yaml:"model_requirements,omitempty"`
	SystemPrompt      string            `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// NewMetadata validates and returns a Metadata value. Name and version must
// be non-empty; an empty agent type defaults to specialized, anything
// outside the fixed set fails.
func NewMetadata(name, version, description string, optFns ...func(m *Metadata)) (Metadata, error) {
	m := Metadata{
		Name:        strings.TrimSpace(name),
		Version:     strings.TrimSpace(version),
		Description: description,
		AgentType:   AgentTypeSpecialized,
	}
	for _, fn := range optFns {
		fn(&m)
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate enforces the construction invariants.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("plugin version cannot be empty")
	}
	if !m.AgentType.valid() {
		return fmt.Errorf("invalid agent_type: %q", m.AgentType)
	}
	return nil
}

// RoutingDescription is the human-readable description attached to this
// plugin's synthesized routing tool.
func (m Metadata) RoutingDescription() string {
	if len(m.Capabilities) == 0 {
		return m.Description
	}
	return fmt.Sprintf("%s. Capabilities only for: %s", m.Description, strings.Join(m.Capabilities, ", "))
}
