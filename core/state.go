package core

// DefaultMaxHops bounds the number of coordinator and agent steps per turn
// when no explicit ceiling is configured.
const DefaultMaxHops = 10

// Context keys written by plugin agent steps into State.PluginContext.
const (
	// ContextLastPlugin holds the name of the most recent plugin agent step.
	ContextLastPlugin = "last_plugin"
	// ContextRoutingHistory holds the arrival-ordered plugin step history,
	// one entry per agent step including repeats.
	ContextRoutingHistory = "routing_history"
)

// State is the single mutable record threaded through every graph step of a
// conversation turn. Messages are append-only; concurrent partial updates
// from different nodes combine additively through the Append* helpers rather
// than replacing the sequence.
type State struct {
	Messages     []Message      `json:"messages"`
	Hops         int            `json:"hops"`
	SessionID    string         `json:"session_id,omitempty"`
	CurrentAgent string         `json:"current_agent,omitempty"`
	AgentsUsed   []string       `json:"agents_used,omitempty"`
	PluginContext map[string]any `json:"plugin_context,omitempty"`

	// Err carries the turn-level failure for programmatic callers of the
	// suspending entry point. The user-visible surface is always a message.
	Err error `json:"-"`
}

// NewState creates a turn state seeded with the given messages.
func NewState(messages ...Message) *State {
	return &State{Messages: messages, PluginContext: map[string]any{}}
}

// AppendMessages appends entries to the conversation history.
func (s *State) AppendMessages(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// LastMessage returns the most recent conversation entry, if any.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// IncrementHops advances the hop counter by exactly one step.
func (s *State) IncrementHops() { s.Hops++ }

// MarkAgentUsed records a plugin agent contribution: CurrentAgent is updated,
// the name is appended to AgentsUsed on first arrival only, and the routing
// history gains one entry per step including repeats.
func (s *State) MarkAgentUsed(name string) {
	s.CurrentAgent = name
	seen := false
	for _, n := range s.AgentsUsed {
		if n == name {
			seen = true
			break
		}
	}
	if !seen {
		s.AgentsUsed = append(s.AgentsUsed, name)
	}
	if s.PluginContext == nil {
		s.PluginContext = map[string]any{}
	}
	s.PluginContext[ContextLastPlugin] = name
	history, _ := s.PluginContext[ContextRoutingHistory].([]string)
	s.PluginContext[ContextRoutingHistory] = append(history, name)
}

// RoutingHistory returns the per-step plugin arrival history, including repeats.
func (s *State) RoutingHistory() []string {
	history, _ := s.PluginContext[ContextRoutingHistory].([]string)
	return history
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *State) Clone() *State {
	clone := &State{
		Messages:     make([]Message, len(s.Messages)),
		Hops:         s.Hops,
		SessionID:    s.SessionID,
		CurrentAgent: s.CurrentAgent,
		AgentsUsed:   append([]string(nil), s.AgentsUsed...),
		Err:          s.Err,
	}
	copy(clone.Messages, s.Messages)
	if s.PluginContext != nil {
		clone.PluginContext = make(map[string]any, len(s.PluginContext))
		for k, v := range s.PluginContext {
			if history, ok := v.([]string); ok && k == ContextRoutingHistory {
				clone.PluginContext[k] = append([]string(nil), history...)
				continue
			}
			clone.PluginContext[k] = v
		}
	}
	return clone
}
