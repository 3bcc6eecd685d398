// Package logging defines the Logger interface consumed by every Lucas
// component plus ready-made adapters (slog, no-op) and the contextual
// LucasLogger used by the orchestration engine.
package logging
