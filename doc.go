// Package parley is a multi-agent generation-and-handoff engine.
//
// Parley runs configured agents - LLM-calling units with their own prompt,
// tools, and knowledge of sibling agents - to answer user requests. An agent
// can hand the remainder of a conversation to a sibling (transfer), invoke
// another agent as a sub-routine and present its result as its own work
// (delegate), and cite evidence pulled from tool calls as structured,
// re-referenceable artifacts.
//
// # Architecture
//
// One user turn flows through the two-pass generation orchestrator:
//
//	caller → agent.Orchestrator → {prompt.Assembler, tool resolution} → model.Runner
//	       → (structured second pass when data components are configured)
//	       → model.GenerationResult
//
// If the model selects a transfer or delegate tool, pkg/tool/agenttool takes
// over: transfers switch the active agent in-process, delegations invoke
// another orchestrator instance (internal) or a remote agent over the A2A
// protocol (external and team-routed targets).
//
// # Packages
//
//   - pkg/agent: two-pass orchestrator, execution context, agent registry
//   - pkg/prompt: system prompt assembly with per-section token breakdown
//   - pkg/artifact: artifact citation protocol (create/reference/pass-to-tool)
//   - pkg/schema: preview/full projection of artifact component schemas
//   - pkg/tool: tool interfaces, builtins, MCP toolsets, transfer/delegate tools
//   - pkg/model: model runner boundary and result resolution
//   - pkg/history: conversation history stores and compression policy
//   - pkg/auth: credential resolution and delegation service tokens
//   - pkg/config: declarative project and agent configuration
//
// The LLM call itself is an external collaborator behind model.Runner. The
// library ships no provider binding; cmd/parley wires an OpenAI-compatible
// client for standalone use.
package parley
