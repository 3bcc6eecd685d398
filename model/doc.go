// Package model defines the provider-agnostic generation contract used by
// the orchestration engine: the Model interface, normalized request and
// response structures, tool declarations and a scriptable mock for tests.
// Vendor adapters live in the subpackages openai and anthropic.
package model
