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

// Package agent drives one full reasoning turn: gather history, build
// the prompt, resolve tools, run the model, execute tool calls, and
// optionally run a second schema-constrained pass over the same
// reasoning trace.
//
// A turn walks Idle, BuildingPrompt, ResolvingTools, Generating, an
// optional StructuredPass, and ends Done or Failed. Tool sessions
// opened for the turn are released on both paths.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/auth"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/observability"
	"github.com/parley-ai/parley/pkg/prompt"
	"github.com/parley-ai/parley/pkg/tool"
)

// defaultMaxIterations bounds the tool-execution loop of one pass.
const defaultMaxIterations = 8

// Turn is the outcome of one orchestrator run.
type Turn struct {
	// Result is the materialized generation result. Nil when the model
	// signaled a transfer.
	Result *model.GenerationResult

	// Transfer names the agent control hands off to. Empty when the
	// turn produced an answer.
	Transfer string
}

// Orchestrator runs two-pass generation for one configured agent.
type Orchestrator struct {
	cfg    *config.AgentConfig
	runner model.Runner

	historyStore  history.Store
	creds         *auth.Resolver
	functionTools map[string]tool.CallableTool
	relationTools []tool.Tool
	recorder      *observability.Recorder
	graphPrompt   string
	maxIterations int
	tokenCounter  history.TokenCounter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory attaches a conversation history store.
func WithHistory(store history.Store) Option {
	return func(o *Orchestrator) { o.historyStore = store }
}

// WithCredentialResolver attaches the credential resolver used for
// protected MCP servers.
func WithCredentialResolver(r *auth.Resolver) Option {
	return func(o *Orchestrator) { o.creds = r }
}

// WithFunctionTools registers locally implemented tools the agent's
// configuration may name.
func WithFunctionTools(tools map[string]tool.CallableTool) Option {
	return func(o *Orchestrator) { o.functionTools = tools }
}

// WithRelationTools injects the transfer and delegate tools synthesized
// for this agent's relations.
func WithRelationTools(tools []tool.Tool) Option {
	return func(o *Orchestrator) { o.relationTools = tools }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *observability.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithGraphPrompt sets the agent-topology prompt section.
func WithGraphPrompt(text string) Option {
	return func(o *Orchestrator) { o.graphPrompt = text }
}

// WithTokenCounter overrides the token counter used for history
// compression decisions.
func WithTokenCounter(c history.TokenCounter) Option {
	return func(o *Orchestrator) { o.tokenCounter = c }
}

// New builds an orchestrator for one agent configuration.
func New(cfg *config.AgentConfig, runner model.Runner, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("agent configuration is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("agent %s requires a model runner", cfg.ID)
	}
	o := &Orchestrator{
		cfg:           cfg,
		runner:        runner,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Generate runs one turn for the user message. Model-runner failures
// abort the turn with the original message preserved; turn-scoped tool
// sessions are released on success and failure alike.
func (o *Orchestrator) Generate(ctx context.Context, execCtx *ExecutionContext, userMessage string) (_ *Turn, err error) {
	if execCtx == nil {
		return nil, fmt.Errorf("execution context is required")
	}

	ctx, span := observability.Tracer().Start(ctx, "agent.generate")
	span.SetAttributes(
		attribute.String("agent.id", o.cfg.ID),
		attribute.String("tenant.id", execCtx.TenantID),
		attribute.String("project.id", execCtx.ProjectID),
	)
	defer span.End()

	started := time.Now()
	defer func() {
		o.recorder.Generation(o.cfg.ID, time.Since(started), err)
	}()

	// BuildingPrompt: history gathering completes before assembly.
	historyText, err := o.gatherHistory(ctx, execCtx, userMessage)
	if err != nil {
		return nil, err
	}

	store := artifact.NewStore()
	protocol := artifact.NewProtocol(store, o.componentLookup(execCtx))

	// ResolvingTools.
	resolved, err := o.resolveTools(ctx, execCtx, store)
	if err != nil {
		return nil, err
	}
	defer resolved.Close()

	assembled, err := prompt.Assemble(o.promptConfig(execCtx, resolved, store))
	if err != nil {
		return nil, err
	}
	slog.Debug("assembled system prompt",
		"agent", o.cfg.ID,
		"tokens", assembled.Breakdown.Total)

	messages := make([]*a2a.Message, 0, 2)
	if historyText != "" {
		messages = append(messages, a2a.NewMessage(a2a.MessageRoleUser,
			a2a.TextPart{Text: "Previous conversation:\n" + historyText}))
	}
	messages = append(messages, a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: userMessage}))

	// Generating.
	final, toolResults, transfer, err := o.reasoningPass(ctx, execCtx, assembled.Prompt, messages, resolved, protocol)
	if err != nil {
		return nil, err
	}
	if transfer != "" {
		return &Turn{Transfer: transfer}, nil
	}

	if _, err := protocol.ProcessText(final.Text, toolResults); err != nil {
		return nil, err
	}

	// StructuredPass.
	if o.cfg.HasDataComponents() {
		object, err := o.structuredPass(ctx, assembled.Prompt, messages, final)
		if err != nil {
			return nil, err
		}
		final.Object = object
	}

	o.recordTurn(ctx, execCtx, userMessage, final.Text)

	return &Turn{Result: final}, nil
}

// gatherHistory reads prior turns per the configured mode.
func (o *Orchestrator) gatherHistory(ctx context.Context, execCtx *ExecutionContext, userMessage string) (string, error) {
	mode := o.cfg.ConversationHistory.Mode
	if mode == "" {
		mode = config.HistoryFull
	}
	if mode == config.HistoryNone || o.historyStore == nil {
		return "", nil
	}

	q := history.Query{
		TenantID:       execCtx.TenantID,
		ProjectID:      execCtx.ProjectID,
		ConversationID: execCtx.ConversationID,
		Limit:          o.cfg.ConversationHistory.Limit,
	}
	if mode == config.HistoryScoped {
		q.SubAgentID = execCtx.SubAgentID
	}

	return history.GetConversationHistoryWithCompression(ctx, o.historyStore, history.CompressionRequest{
		Query:           q,
		CurrentMessage:  userMessage,
		Model:           o.cfg.Models.Base,
		Summarizer:      o.runner,
		SummarizerModel: o.cfg.Models.ForSummarizer(),
		Counter:         o.tokenCounter,
	})
}

func (o *Orchestrator) componentLookup(execCtx *ExecutionContext) artifact.ComponentLookup {
	return func(name string) *config.ArtifactComponent {
		if execCtx.Project != nil {
			if comp := execCtx.Project.ArtifactComponent(name); comp != nil {
				return comp
			}
		}
		for i := range o.cfg.ArtifactComponents {
			if o.cfg.ArtifactComponents[i].Name == name {
				return &o.cfg.ArtifactComponents[i]
			}
		}
		return nil
	}
}

func (o *Orchestrator) promptConfig(execCtx *ExecutionContext, resolved *resolvedTools, store *artifact.Store) *prompt.Config {
	currentTime, _ := execCtx.Metadata["currentTime"].(string)

	var projectComponents []config.ArtifactComponent
	if execCtx.Project != nil {
		projectComponents = execCtx.Project.ArtifactComponents
	}

	return &prompt.Config{
		CorePrompt:                 o.cfg.Prompt,
		GraphPrompt:                o.graphPrompt,
		CurrentTime:                currentTime,
		Tools:                      resolved.datas,
		ToolGroups:                 resolved.groups,
		Skills:                     o.cfg.Skills,
		DataComponents:             o.cfg.DataComponents,
		Artifacts:                  store.List(),
		ArtifactComponents:         o.cfg.ArtifactComponents,
		ProjectArtifactComponents:  projectComponents,
		HasAgentArtifactComponents: projectHasArtifactComponents(execCtx.Project, o.cfg),
		HasTransferRelations:       len(o.cfg.TransferRelations) > 0,
		HasDelegateRelations:       len(o.cfg.DelegateRelations) > 0,
	}
}

// reasoningPass runs the free-form first pass: model calls interleaved
// with tool execution until the model stops asking for tools or signals
// a transfer.
func (o *Orchestrator) reasoningPass(
	ctx context.Context,
	execCtx *ExecutionContext,
	systemPrompt string,
	messages []*a2a.Message,
	resolved *resolvedTools,
	protocol *artifact.Protocol,
) (*model.GenerationResult, map[string]any, string, error) {
	defs := resolved.definitions()
	toolResults := make(map[string]any)
	executed := make(map[string]bool)

	var final *model.GenerationResult
	var allSteps []model.Step

	for iteration := 0; iteration < o.maxIterations; iteration++ {
		resp, err := o.runner.Generate(ctx, &model.Request{
			Messages:          messages,
			Tools:             defs,
			Config:            &model.GenerateConfig{Model: o.cfg.Models.Base},
			SystemInstruction: systemPrompt,
		})
		if err != nil {
			return nil, nil, "", err
		}
		result, err := model.ResolveResult(ctx, resp)
		if err != nil {
			return nil, nil, "", err
		}
		allSteps = append(allSteps, result.Steps...)

		var pending []tool.ToolCall
		for _, call := range result.ToolCalls() {
			if !executed[call.ID] {
				pending = append(pending, call)
			}
		}
		if len(pending) == 0 {
			final = result
			break
		}

		results, transfer, err := o.executeToolCalls(ctx, execCtx, pending, resolved, protocol, toolResults)
		if err != nil {
			return nil, nil, "", err
		}
		for _, call := range pending {
			executed[call.ID] = true
		}
		if transfer != "" {
			return nil, nil, transfer, nil
		}

		messages = appendToolExchange(messages, pending, results)
		final = result
	}

	if final == nil {
		return nil, nil, "", fmt.Errorf("agent %s exceeded %d reasoning iterations", o.cfg.ID, o.maxIterations)
	}
	final.Steps = allSteps
	return final, toolResults, "", nil
}

// executeToolCalls runs the model's pending tool calls in order,
// resolving artifact sentinels in the arguments first. A tool error
// becomes a tool result, not a turn failure; a transfer signal stops
// the loop immediately.
func (o *Orchestrator) executeToolCalls(
	ctx context.Context,
	execCtx *ExecutionContext,
	calls []tool.ToolCall,
	resolved *resolvedTools,
	protocol *artifact.Protocol,
	toolResults map[string]any,
) ([]tool.ToolResult, string, error) {
	results := make([]tool.ToolResult, 0, len(calls))

	for _, call := range calls {
		callable, ok := resolved.callable[call.Name]
		if !ok {
			results = append(results, tool.ToolResult{
				ToolCallID: call.ID,
				Error:      fmt.Sprintf("unknown tool %q", call.Name),
			})
			continue
		}

		args, err := protocol.ResolveArgs(call.Args, toolResults)
		if err != nil {
			return nil, "", err
		}

		toolCtx := newToolContext(ctx, call.ID, execCtx)
		content, callErr := callable.Call(toolCtx, args)
		o.recorder.ToolCall(call.Name, callErr)

		if target := toolCtx.Actions().TransferToAgent; target != "" {
			return nil, target, nil
		}

		result := tool.ToolResult{ToolCallID: call.ID, Content: content}
		if callErr != nil {
			result.Error = callErr.Error()
		} else {
			toolResults[call.ID] = content
		}
		results = append(results, result)
	}

	return results, "", nil
}

// appendToolExchange adds the tool round trip to the conversation so
// the next model call sees it.
func appendToolExchange(messages []*a2a.Message, calls []tool.ToolCall, results []tool.ToolResult) []*a2a.Message {
	callParts := make([]a2a.Part, 0, len(calls))
	for _, call := range calls {
		callParts = append(callParts, a2a.DataPart{Data: map[string]any{
			"type":      "tool_use",
			"id":        call.ID,
			"name":      call.Name,
			"arguments": call.Args,
		}})
	}
	messages = append(messages, a2a.NewMessage(a2a.MessageRoleAgent, callParts...))

	resultParts := make([]a2a.Part, 0, len(results))
	for _, result := range results {
		data := map[string]any{
			"type":         "tool_result",
			"tool_call_id": result.ToolCallID,
			"content":      result.Content,
		}
		if result.Error != "" {
			data["error"] = result.Error
		}
		resultParts = append(resultParts, a2a.DataPart{Data: data})
	}
	return append(messages, a2a.NewMessage(a2a.MessageRoleUser, resultParts...))
}

// structuredPass constrains a second call over the same reasoning trace
// to the combined data-component schema. It never re-executes tools.
func (o *Orchestrator) structuredPass(
	ctx context.Context,
	systemPrompt string,
	messages []*a2a.Message,
	firstPass *model.GenerationResult,
) (map[string]any, error) {
	if firstPass.HasText && firstPass.Text != "" {
		messages = append(messages, a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: firstPass.Text}))
	}
	messages = append(messages, a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{
		Text: "Render your answer above as the structured response now.",
	}))

	resp, err := o.runner.Generate(ctx, &model.Request{
		Messages: messages,
		Config: &model.GenerateConfig{
			Model:              o.cfg.Models.ForStructuredOutput(),
			ResponseSchema:     structuredSchema(o.cfg),
			ResponseSchemaName: "structured_response",
		},
		SystemInstruction: systemPrompt,
	})
	if err != nil {
		return nil, err
	}
	result, err := model.ResolveResult(ctx, resp)
	if err != nil {
		return nil, err
	}
	return result.Object, nil
}

// recordTurn persists the user message and the agent's answer.
func (o *Orchestrator) recordTurn(ctx context.Context, execCtx *ExecutionContext, userMessage, answer string) {
	if o.historyStore == nil {
		return
	}
	entries := []history.Message{
		{
			ID:             uuid.NewString(),
			TenantID:       execCtx.TenantID,
			ProjectID:      execCtx.ProjectID,
			ConversationID: execCtx.ConversationID,
			Role:           "user",
			Content:        userMessage,
			Visibility:     history.VisibilityUser,
			SubAgentID:     execCtx.SubAgentID,
		},
		{
			ID:             uuid.NewString(),
			TenantID:       execCtx.TenantID,
			ProjectID:      execCtx.ProjectID,
			ConversationID: execCtx.ConversationID,
			Role:           "agent",
			Content:        answer,
			Visibility:     history.VisibilityUser,
			SubAgentID:     execCtx.SubAgentID,
		},
	}
	for _, entry := range entries {
		if err := o.historyStore.Append(ctx, entry); err != nil {
			slog.Warn("failed to record conversation message", "agent", o.cfg.ID, "error", err)
		}
	}
}
