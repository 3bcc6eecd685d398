// Package calculator is a bundled arithmetic plugin. It doubles as the
// reference for writing statically linked plugins: expose a factory, point a
// plugin.yaml manifest at it and register the factory with a StaticLoader.
package calculator

import (
	"context"
	"fmt"
	"math"

	"github.com/jonaskahn/lucas/plugin"
	"github.com/jonaskahn/lucas/tool"
)

const systemPrompt = "You are a precise calculation assistant. Use the calculator tool for every arithmetic step instead of computing in your head, then state the result clearly."

// FactoryName is the identifier to register with a StaticLoader.
const FactoryName = "calculator"

// New constructs the calculator plugin.
func New() plugin.Plugin { return &calculatorPlugin{} }

type calculatorPlugin struct{}

func (p *calculatorPlugin) Metadata() plugin.Metadata {
	meta, _ := plugin.NewMetadata("calculator", "1.0.0",
		"Performs arithmetic calculations",
		func(m *plugin.Metadata) {
			m.Capabilities = []string{"math", "arithmetic"}
			m.AgentType = plugin.AgentTypeUtility
			m.SystemPrompt = systemPrompt
		})
	return meta
}

func (p *calculatorPlugin) CreateAgent() plugin.Agent {
	return plugin.NewBaseAgent(systemPrompt, newCalculatorTool())
}

type calcArgs struct {
	Operation string  `json:"operation" description:"One of add, subtract, multiply, divide, power, sqrt"`
	A         float64 `json:"a" description:"First operand"`
	B         float64 `json:"b,omitempty" description:"Second operand; unused for sqrt"`
}

func newCalculatorTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"calculator",
		"Perform basic math operations (add, subtract, multiply, divide, power, sqrt)",
		calcArgs{},
		func(_ context.Context, args map[string]any) (any, error) {
			op, _ := args["operation"].(string)
			a, _ := args["a"].(float64)
			b, _ := args["b"].(float64)
			switch op {
			case "add":
				return a + b, nil
			case "subtract":
				return a - b, nil
			case "multiply":
				return a * b, nil
			case "divide":
				if b == 0 {
					return nil, tool.NewToolError("calculator", "division by zero", "EXECUTION_ERROR")
				}
				return a / b, nil
			case "power":
				return math.Pow(a, b), nil
			case "sqrt":
				if a < 0 {
					return nil, tool.NewToolError("calculator", "square root of a negative number", "EXECUTION_ERROR")
				}
				return math.Sqrt(a), nil
			default:
				return nil, fmt.Errorf("unsupported operation %q", op)
			}
		},
	)
}
