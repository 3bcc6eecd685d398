package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonaskahn/lucas/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by graph nodes.
// Messages carry the full typed conversation including system entries;
// adapters split roles into whatever shape their vendor expects.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	// ParallelToolCalls allows the model to emit multiple tool calls in one
	// turn. The coordinator always disables it: one routing decision per step.
	ParallelToolCalls bool `json:"parallel_tool_calls,omitempty"`
}

// Response is the completion emitted by a model for one request.
type Response struct {
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason,omitempty"` // "stop", "tool_calls", "length", ...
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// returns paired channels; exactly one Response or one error arrives
// before both channels close.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Generate runs a request to completion against a model and returns the
// single final response. It is the blocking convenience used by graph nodes.
func Generate(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)
	select {
	case resp, ok := <-respCh:
		if !ok {
			if err := <-errCh; err != nil {
				return Response{}, err
			}
			return Response{}, fmt.Errorf("model %s closed without response", m.Info().Name)
		}
		return resp, nil
	case err := <-errCh:
		if err != nil {
			return Response{}, err
		}
		resp, ok := <-respCh
		if !ok {
			return Response{}, fmt.Errorf("model %s closed without response", m.Info().Name)
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// MockModel is an in-memory Model for tests and examples. Responses are
// served from a FIFO script; when the script is exhausted it echoes the last
// request text. Safe for concurrent use.
type MockModel struct {
	mu     sync.Mutex
	info   Info
	script []Response
	calls  []Request
	err    error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: provider, SupportsTools: true}}
}

// EnqueueText scripts a plain assistant text completion.
func (m *MockModel) EnqueueText(text string) {
	m.enqueue(Response{Message: core.NewAssistantMessage(text), FinishReason: "stop"})
}

// EnqueueToolCall scripts an assistant completion that requests a tool call.
func (m *MockModel) EnqueueToolCall(toolName, arguments string) {
	m.enqueue(Response{
		Message: core.Message{
			Role:      core.RoleAssistant,
			ToolCalls: []core.ToolCall{{ID: core.NewID(), Name: toolName, Arguments: arguments}},
		},
		FinishReason: "tool_calls",
	})
}

// EnqueueToolCalls scripts an assistant completion carrying several tool
// calls in one message, as providers emit when parallel calls slip through.
func (m *MockModel) EnqueueToolCalls(toolNames ...string) {
	calls := make([]core.ToolCall, 0, len(toolNames))
	for _, name := range toolNames {
		calls = append(calls, core.ToolCall{ID: core.NewID(), Name: name, Arguments: "{}"})
	}
	m.enqueue(Response{
		Message:      core.Message{Role: core.RoleAssistant, ToolCalls: calls},
		FinishReason: "tool_calls",
	})
}

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockModel) enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// Requests returns a copy of every request seen so far, in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model by replaying the scripted responses.
func (m *MockModel) Generate(_ context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls = append(m.calls, req)
	err := m.err
	var resp Response
	if err == nil {
		if len(m.script) > 0 {
			resp = m.script[0]
			m.script = m.script[1:]
		} else {
			last := ""
			if len(req.Messages) > 0 {
				last = req.Messages[len(req.Messages)-1].Text
			}
			resp = Response{Message: core.NewAssistantMessage("Mock response to: " + last), FinishReason: "stop"}
		}
	}
	m.mu.Unlock()

	if err != nil {
		errCh <- err
	} else {
		respCh <- resp
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
