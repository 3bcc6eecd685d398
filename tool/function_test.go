package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonaskahn/lucas/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror the JSON decoded schema shape
		"required": []any{"x"},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5}, schema))
	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5.0}, schema))

	err := util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	vErr, ok := err.(*util.ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "x", vErr.Field)

	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.Error(t, err)
	vErr, ok = err.(*util.ValidationError)
	assert.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type integer")
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
	sum := NewFunctionTool("sum", "Add numbers", params, func(_ context.Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sum.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tt := NewFunctionTool("test", "Test", params, func(context.Context, map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tt.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "test", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tt := NewFunctionToolFromStruct("boom", "Always fails", struct{}{},
		func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("kaput")
		})

	_, err := tt.Call(context.Background(), map[string]any{})
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "kaput")
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewToolError("boom", "domain failure", "EXECUTION_ERROR")
	tt := NewFunctionToolFromStruct("boom", "Fails with ToolError", struct{}{},
		func(context.Context, map[string]any) (any, error) {
			return nil, custom
		})

	_, err := tt.Call(context.Background(), map[string]any{})
	assert.Same(t, custom, err)
}

func TestFunctionTool_SchemaFromStruct(t *testing.T) {
	tt := NewFunctionToolFromStruct("typed", "Typed args", sampleSchema{},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"], nil
		})

	out, err := tt.Call(context.Background(), map[string]any{"a": "hello"})
	assert.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = tt.Call(context.Background(), map[string]any{"a": 7})
	assert.Error(t, err)
}
