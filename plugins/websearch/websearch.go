// Package websearch is a bundled lookup plugin backed by a static knowledge
// index. Swap the index for a real search client in production deployments;
// the plugin contract stays the same.
package websearch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonaskahn/lucas/plugin"
	"github.com/jonaskahn/lucas/tool"
)

const systemPrompt = "You are a research assistant. Use the search tool to look up facts before answering and cite which result each claim came from."

// FactoryName is the identifier to register with a StaticLoader.
const FactoryName = "search"

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Options configures the plugin.
type Options struct {
	// Index maps lowercase keywords to results. Defaults to a small
	// built-in demo corpus.
	Index map[string][]Result
}

// New constructs the websearch plugin.
func New(optFns ...func(o *Options)) plugin.Plugin {
	opts := Options{Index: demoIndex()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &searchPlugin{index: opts.Index}
}

type searchPlugin struct {
	index map[string][]Result
}

func (p *searchPlugin) Metadata() plugin.Metadata {
	meta, _ := plugin.NewMetadata("search", "1.0.0",
		"Searches the web for current information",
		func(m *plugin.Metadata) {
			m.Capabilities = []string{"search", "lookup", "facts"}
			m.AgentType = plugin.AgentTypeSpecialized
			m.SystemPrompt = systemPrompt
		})
	return meta
}

func (p *searchPlugin) CreateAgent() plugin.Agent {
	return plugin.NewBaseAgent(systemPrompt, newSearchTool(p.index))
}

type searchArgs struct {
	Query      string `json:"query" description:"Search query"`
	MaxResults *int   `json:"max_results,omitempty" description:"Maximum number of results, default 3"`
}

func newSearchTool(index map[string][]Result) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"web_search",
		"Search the web and return matching results with titles, snippets and URLs",
		searchArgs{},
		func(_ context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			limit := 3
			if raw, ok := args["max_results"].(float64); ok && raw > 0 {
				limit = int(raw)
			}
			hits := lookup(index, query, limit)
			if len(hits) == 0 {
				return fmt.Sprintf("No results found for %q", query), nil
			}
			return hits, nil
		},
	)
}

// lookup matches every index keyword contained in the query and merges the
// hits in deterministic keyword order.
func lookup(index map[string][]Result, query string, limit int) []Result {
	q := strings.ToLower(query)
	keywords := make([]string, 0, len(index))
	for kw := range index {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	var hits []Result
	for _, kw := range keywords {
		if !strings.Contains(q, kw) {
			continue
		}
		for _, r := range index[kw] {
			hits = append(hits, r)
			if len(hits) >= limit {
				return hits
			}
		}
	}
	return hits
}

func demoIndex() map[string][]Result {
	return map[string][]Result{
		"go": {
			{
				Title:   "The Go Programming Language",
				Snippet: "Go is an open source programming language that makes it simple to build secure, scalable systems.",
				URL:     "https://go.dev",
			},
		},
		"weather": {
			{
				Title:   "Current conditions",
				Snippet: "Sunny, 22 degrees Celsius with light winds.",
				URL:     "https://example.com/weather",
			},
		},
	}
}
