package core

import "strings"

// RoutingKind classifies a parsed routing token.
type RoutingKind int

const (
	// RouteFinalize directs the turn to the finalizer.
	RouteFinalize RoutingKind = iota
	// RouteAgent directs the turn to a named plugin agent.
	RouteAgent
	// RouteUnknown marks an unrecognized token; the engine soft-fails it
	// to the finalizer.
	RouteUnknown
)

// RoutingToken is the parsed form of the plain-string contract passed from a
// tool execution step back into the graph. Internal routing logic operates on
// this variant only; the raw string is parsed exactly once at the boundary.
type RoutingToken struct {
	Kind   RoutingKind
	Plugin string // Set when Kind == RouteAgent
	Raw    string // Original token text, kept for diagnostics
}

const (
	// FinalToken is the literal routing token emitted by the finalize tool.
	FinalToken = "final"
	// GotoPrefix prefixes plugin-targeted routing tokens and tool names.
	GotoPrefix = "goto_"
)

// ParseRoutingToken maps a raw tool-result string onto a RoutingToken given
// the set of currently loaded plugin names. The mapping is a pure function of
// its inputs: "final" finalizes, a bare loaded-plugin name or goto_<name> of
// a loaded plugin routes to that plugin's agent, everything else is unknown.
func ParseRoutingToken(raw string, loaded func(name string) bool) RoutingToken {
	token := strings.TrimSpace(raw)
	switch {
	case token == FinalToken:
		return RoutingToken{Kind: RouteFinalize, Raw: raw}
	case loaded(token):
		return RoutingToken{Kind: RouteAgent, Plugin: token, Raw: raw}
	case strings.HasPrefix(token, GotoPrefix) && loaded(token[len(GotoPrefix):]):
		return RoutingToken{Kind: RouteAgent, Plugin: token[len(GotoPrefix):], Raw: raw}
	default:
		return RoutingToken{Kind: RouteUnknown, Raw: raw}
	}
}
