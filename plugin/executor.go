package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonaskahn/lucas/core"
	"github.com/jonaskahn/lucas/logging"
	"github.com/jonaskahn/lucas/tool"
)

// maxToolParallelism bounds concurrent tool executions within one tool step.
const maxToolParallelism = 4

// executeToolCalls runs a batch of tool calls against the plugin's tool index
// and returns exactly one result per call, in the original call order. Tool
// panics are recovered and surfaced as errored results; a failed call never
// aborts its siblings.
func executeToolCalls(
	ctx context.Context,
	logger logging.Logger,
	tools map[string]tool.Tool,
	calls []core.ToolCall,
) []core.ToolResult {
	results := make([]core.ToolResult, len(calls))
	if len(calls) == 1 {
		results[0] = executeOne(ctx, logger, tools, calls[0])
		return results
	}

	sem := make(chan struct{}, maxToolParallelism)
	var wg sync.WaitGroup
	for i := range calls {
		if ctx.Err() != nil {
			results[i] = core.ToolResult{ID: calls[i].ID, Name: calls[i].Name, Error: ctx.Err().Error()}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = executeOne(ctx, logger, tools, call)
		}(i, calls[i])
	}
	wg.Wait()
	return results
}

func executeOne(ctx context.Context, logger logging.Logger, tools map[string]tool.Tool, call core.ToolCall) (res core.ToolResult) {
	res = core.ToolResult{ID: call.ID, Name: call.Name}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("tool panic: %v", r)
			logger.Error("plugin.tool.panic", "tool", call.Name, "recover", r)
		}
	}()

	impl, ok := tools[call.Name]
	if !ok {
		res.Error = fmt.Sprintf("tool %s not found", call.Name)
		logger.Warn("plugin.tool.unknown", "tool", call.Name)
		return res
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			res.Error = fmt.Sprintf("failed to unmarshal args: %v", err)
			return res
		}
	}

	start := time.Now()
	out, err := impl.Call(ctx, args)
	if err != nil {
		res.Error = err.Error()
		logger.Error("plugin.tool.error", "tool", call.Name, "error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds())
		return res
	}
	res.Content = stringifyResult(out)
	logger.Info("plugin.tool.executed", "tool", call.Name,
		"duration_ms", time.Since(start).Milliseconds())
	return res
}

// stringifyResult renders a tool result for the conversation history.
// Strings pass through; everything else is JSON encoded.
func stringifyResult(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	default:
		raw, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf("%v", out)
		}
		return string(raw)
	}
}
