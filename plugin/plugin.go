// Package plugin implements the plugin subsystem: metadata descriptors, the
// plugin and agent contracts, the loaded Bundle that splices a plugin into
// the routing graph, the Registry that discovers and loads plugin sources,
// and the synthesized routing tools exposed to the coordinator.
package plugin

import "github.com/jonaskahn/lucas/tool"

// Plugin is the contract a plugin source unit must expose: a metadata
// accessor and an agent factory. Optional capabilities are declared through
// the DependencyValidator and ConfigSchemer interfaces and default to
// "no errors" / "empty schema" when absent.
type Plugin interface {
	// Metadata returns the immutable plugin descriptor.
	Metadata() Metadata

	// CreateAgent constructs the plugin's agent instance.
	CreateAgent() Agent
}

// DependencyValidator is optionally implemented by plugins that want to
// verify prerequisites before loading. A non-empty slice aborts the load.
type DependencyValidator interface {
	ValidateDependencies() []string
}

// ConfigSchemer is optionally implemented by plugins exposing a
// configuration schema for UIs.
type ConfigSchemer interface {
	ConfigSchema() map[string]any
}

// Agent is the runnable part of a plugin: it provisions the tools bound to
// the plugin's model and supplies the system prompt prepended to every
// agent step.
type Agent interface {
	// Tools returns the tools this agent exposes to its model.
	Tools() []tool.Tool

	// SystemPrompt returns the instruction prepended to the conversation.
	SystemPrompt() string

	// Initialize prepares agent resources after the model is bound.
	Initialize() error
}

// BaseAgent provides a ready-made Agent implementation backed by a static
// tool list and prompt. Embed or use it directly for simple plugins.
type BaseAgent struct {
	tools  []tool.Tool
	prompt string
}

// NewBaseAgent constructs a BaseAgent from a prompt and tool list.
func NewBaseAgent(prompt string, tools ...tool.Tool) *BaseAgent {
	return &BaseAgent{tools: tools, prompt: prompt}
}

// Tools returns the agent's tool list.
func (a *BaseAgent) Tools() []tool.Tool { return a.tools }

// SystemPrompt returns the agent's instruction text.
func (a *BaseAgent) SystemPrompt() string { return a.prompt }

// Initialize is a no-op for static agents.
func (a *BaseAgent) Initialize() error { return nil }

// ValidateDependencies runs the plugin's optional dependency validation,
// defaulting to no errors.
func ValidateDependencies(p Plugin) []string {
	if v, ok := p.(DependencyValidator); ok {
		return v.ValidateDependencies()
	}
	return nil
}

// ConfigSchema returns the plugin's optional configuration schema,
// defaulting to an empty schema.
func ConfigSchema(p Plugin) map[string]any {
	if s, ok := p.(ConfigSchemer); ok {
		return s.ConfigSchema()
	}
	return map[string]any{}
}
