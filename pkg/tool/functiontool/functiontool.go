// Package functiontool turns a typed Go function into a tool.CallableTool.
//
// The argument struct's json and jsonschema tags drive schema generation,
// so the model sees parameter names, descriptions, and required markers
// without any hand-written schema:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"required,description=Search query"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"description=Max results,default=10"`
//	}
//
//	searchTool, err := functiontool.New(
//	    functiontool.Config{Name: "search", Description: "Search documents"},
//	    func(ctx tool.Context, args SearchArgs) (map[string]any, error) { ... },
//	)
//
// For tools with dynamic schemas or internal state, implement
// tool.CallableTool directly instead.
package functiontool

import (
	"fmt"

	"github.com/parley-ai/parley/pkg/tool"
)

// Config names and describes one function tool.
type Config struct {
	// Name uniquely identifies the tool. Required.
	Name string

	// Description tells the model when to call it. Required.
	Description string

	// UsageGuidelines, when set, renders as prompt-level guidance.
	UsageGuidelines string
}

// New wraps a typed function as a CallableTool, deriving the parameter
// schema from the Args struct tags.
func New[Args any](cfg Config, fn func(tool.Context, Args) (map[string]any, error)) (tool.CallableTool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("function tool requires a name")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("function tool %s requires a description", cfg.Name)
	}
	if fn == nil {
		return nil, fmt.Errorf("function tool %s requires a function", cfg.Name)
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{config: cfg, fn: fn, schema: schema}, nil
}

type functionTool[Args any] struct {
	config Config
	fn     func(tool.Context, Args) (map[string]any, error)
	schema map[string]any
}

var _ tool.GuidedTool = (*functionTool[struct{}])(nil)

func (t *functionTool[Args]) Name() string { return t.config.Name }

func (t *functionTool[Args]) Description() string { return t.config.Description }

func (t *functionTool[Args]) UsageGuidelines() string { return t.config.UsageGuidelines }

func (t *functionTool[Args]) Schema() map[string]any { return t.schema }

func (t *functionTool[Args]) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	var typed Args
	if err := mapToStruct(args, &typed); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", t.config.Name, err)
	}
	return t.fn(ctx, typed)
}
