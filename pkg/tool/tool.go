// Copyright 2025 The Parley Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tool defines the interfaces for tools agents can invoke.
//
// Tools arrive from three sources: MCP servers (mcptoolset), local Go
// functions (functiontool), and sibling agents exposed as transfer or
// delegate tools (agenttool). The orchestrator only sees the interfaces
// here.
package tool

import "context"

// Tool is the base interface for a callable tool.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description returns what the tool does. Used by the model to
	// decide when to call it.
	Description() string
}

// CallableTool extends Tool with synchronous execution.
type CallableTool interface {
	Tool

	// Call executes the tool with the given arguments. Blocking.
	Call(ctx Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema for the tool's parameters.
	// Nil when the tool takes no parameters.
	Schema() map[string]any
}

// GuidedTool is an optional interface for tools that carry usage
// guidance rendered into the system prompt.
type GuidedTool interface {
	Tool

	// UsageGuidelines returns prompt-level guidance for this tool.
	UsageGuidelines() string
}

// Toolset groups related tools behind one source, typically an MCP
// server connection. Toolsets are turn-scoped: Close must run when the
// turn ends, on success and failure alike.
type Toolset interface {
	// Name returns the name of this toolset.
	Name() string

	// Tools resolves the available tools. Connection happens lazily on
	// first call.
	Tools(ctx context.Context) ([]Tool, error)

	// Instructions returns server-level guidance for the prompt, empty
	// when the source provides none.
	Instructions() string

	// Close releases the underlying connection.
	Close() error
}

// Data is the prompt-facing description of one resolved tool: what the
// assembler renders into the available-tools section.
type Data struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	InputSchema     map[string]any `json:"inputSchema,omitempty"`
	UsageGuidelines string         `json:"usageGuidelines,omitempty"`
}

// ToData converts a tool to its prompt-facing description.
func ToData(t Tool) Data {
	d := Data{
		Name:        t.Name(),
		Description: t.Description(),
	}
	if ct, ok := t.(CallableTool); ok {
		d.InputSchema = ct.Schema()
	}
	if gt, ok := t.(GuidedTool); ok {
		d.UsageGuidelines = gt.UsageGuidelines()
	}
	return d
}

// Definition represents a tool definition for model function calling.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToDefinition converts a tool to a Definition.
func ToDefinition(t Tool) Definition {
	def := Definition{
		Name:        t.Name(),
		Description: t.Description(),
	}
	if ct, ok := t.(CallableTool); ok {
		def.Parameters = ct.Schema()
	}
	return def
}

// ToolCall represents the model's request to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of one tool invocation, kept for history
// building and artifact resolution.
type ToolResult struct {
	ToolCallID string
	Content    any
	Error      string
	Metadata   map[string]any
}

// Predicate decides whether a tool is exposed.
type Predicate func(t Tool) bool

// StringPredicate allows only the named tools. An empty list allows all.
func StringPredicate(allowedTools []string) Predicate {
	if len(allowedTools) == 0 {
		return func(Tool) bool { return true }
	}
	allowed := make(map[string]bool, len(allowedTools))
	for _, name := range allowedTools {
		allowed[name] = true
	}
	return func(t Tool) bool {
		return allowed[t.Name()]
	}
}
