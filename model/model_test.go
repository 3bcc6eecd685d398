package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonaskahn/lucas/core"
)

var _ Model = (*MockModel)(nil)

func TestGenerate_ReturnsScriptedResponse(t *testing.T) {
	mock := NewMockModel("m", "mock")
	mock.EnqueueText("scripted")

	resp, err := Generate(context.Background(), mock, Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})
	assert.NoError(t, err)
	assert.Equal(t, "scripted", resp.Message.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestGenerate_EchoFallback(t *testing.T) {
	mock := NewMockModel("m", "mock")
	resp, err := Generate(context.Background(), mock, Request{
		Messages: []core.Message{core.NewUserMessage("anything")},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Mock response to: anything", resp.Message.Text)
}

func TestGenerate_PropagatesError(t *testing.T) {
	mock := NewMockModel("m", "mock")
	boom := errors.New("backend down")
	mock.FailWith(boom)

	_, err := Generate(context.Background(), mock, Request{})
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_ContextCancellation(t *testing.T) {
	blocked := blockingModel{release: make(chan struct{})}
	defer close(blocked.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, blocked, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

// blockingModel never produces a response until released.
type blockingModel struct {
	release chan struct{}
}

func (m blockingModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error)
	go func() {
		<-m.release
		close(respCh)
		close(errCh)
	}()
	return respCh, errCh
}

func (m blockingModel) Info() Info { return Info{Name: "blocking", Provider: "test"} }

func TestMockModel_ToolCallScript(t *testing.T) {
	mock := NewMockModel("m", "mock")
	mock.EnqueueToolCall("lookup", `{"q":"weather"}`)

	resp, err := Generate(context.Background(), mock, Request{})
	assert.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "lookup", resp.Message.ToolCalls[0].Name)
	assert.NotEmpty(t, resp.Message.ToolCalls[0].ID)
}

func TestMockModel_RecordsRequests(t *testing.T) {
	mock := NewMockModel("m", "mock")
	_, _ = Generate(context.Background(), mock, Request{Messages: []core.Message{core.NewUserMessage("one")}})
	_, _ = Generate(context.Background(), mock, Request{Messages: []core.Message{core.NewUserMessage("two")}})

	reqs := mock.Requests()
	assert.Len(t, reqs, 2)
	assert.Equal(t, "one", reqs[0].Messages[0].Text)
	assert.Equal(t, "two", reqs[1].Messages[0].Text)
}
