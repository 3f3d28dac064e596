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

// Package runtime assembles a project's agents into a runnable unit.
// It synthesizes the transfer and delegate tools each agent's relations
// declare, builds orchestrators on demand through the registry, and
// exposes one entry point per user turn.
package runtime

import (
	"context"
	"fmt"

	"github.com/parley-ai/parley/pkg/agent"
	"github.com/parley-ai/parley/pkg/auth"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/httpclient"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/observability"
	"github.com/parley-ai/parley/pkg/tool"
)

// Runtime owns the per-project wiring: orchestrator construction,
// relation tool synthesis, and the shared stores every turn uses.
type Runtime struct {
	project *config.Project
	runner  model.Runner

	registry      *agent.Registry
	historyStore  history.Store
	creds         *auth.Resolver
	minter        auth.TokenMinter
	recorder      *observability.Recorder
	functionTools map[string]tool.CallableTool
	httpClient    *httpclient.Client
	tokenCounter  history.TokenCounter
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHistory attaches the conversation history store shared by every
// agent in the project.
func WithHistory(store history.Store) Option {
	return func(r *Runtime) { r.historyStore = store }
}

// WithCredentialResolver attaches the resolver for credential
// references named by MCP servers and external agents.
func WithCredentialResolver(creds *auth.Resolver) Option {
	return func(r *Runtime) { r.creds = creds }
}

// WithTokenMinter attaches the service token minter used by
// team-routed delegation.
func WithTokenMinter(minter auth.TokenMinter) Option {
	return func(r *Runtime) { r.minter = minter }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec *observability.Recorder) Option {
	return func(r *Runtime) { r.recorder = rec }
}

// WithFunctionTools registers locally implemented tools agents may
// reference by name.
func WithFunctionTools(tools map[string]tool.CallableTool) Option {
	return func(r *Runtime) { r.functionTools = tools }
}

// WithHTTPClient overrides the transport external delegate calls use,
// mainly for tests.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(r *Runtime) { r.httpClient = hc }
}

// WithTokenCounter overrides the token counter used for history
// compression decisions.
func WithTokenCounter(c history.TokenCounter) Option {
	return func(r *Runtime) { r.tokenCounter = c }
}

// New builds the runtime for one project snapshot.
func New(project *config.Project, runner model.Runner, opts ...Option) (*Runtime, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("model runner is required")
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project %q: %w", project.ProjectID, err)
	}

	r := &Runtime{
		project: project,
		runner:  runner,
	}
	for _, opt := range opts {
		opt(r)
	}

	registry, err := agent.NewRegistry(project, r.buildOrchestrator, r.recorder)
	if err != nil {
		return nil, err
	}
	r.registry = registry
	return r, nil
}

// Registry exposes the agent registry, the Invoker delegate tools use.
func (r *Runtime) Registry() *agent.Registry {
	return r.registry
}

// Close releases the shared stores.
func (r *Runtime) Close() error {
	if r.historyStore != nil {
		return r.historyStore.Close()
	}
	return nil
}

// TurnRequest is one user turn as received from the caller.
type TurnRequest struct {
	// AgentID names the starting agent. Empty uses the project default.
	AgentID string

	// ConversationID keys history persistence.
	ConversationID string

	// Message is the user's input.
	Message string

	// APIKey is the caller's credential.
	APIKey string

	// ServiceToken is set instead of APIKey when the turn itself
	// arrived through team routing.
	ServiceToken string

	// ResolvedRef is the configuration version this turn runs against.
	ResolvedRef string

	// Metadata carries request metadata as received, including the
	// teamDelegation marker.
	Metadata map[string]any
}

// Run executes one turn, following transfers until an agent produces a
// final answer.
func (r *Runtime) Run(ctx context.Context, req *TurnRequest) (*model.GenerationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("turn request is required")
	}
	if req.Message == "" {
		return nil, fmt.Errorf("turn request has no message")
	}

	execCtx := &agent.ExecutionContext{
		TenantID:       r.project.TenantID,
		ProjectID:      r.project.ProjectID,
		ConversationID: req.ConversationID,
		Project:        r.project,
		ResolvedRef:    req.ResolvedRef,
		Metadata:       req.Metadata,
		Credentials: auth.Credentials{
			APIKey:       req.APIKey,
			ServiceToken: req.ServiceToken,
		},
	}
	if team, ok := req.Metadata["teamDelegation"].(bool); ok && team {
		execCtx.TeamDelegation = true
	}

	return r.registry.Run(ctx, execCtx, req.AgentID, req.Message)
}

// buildOrchestrator is the registry's factory: every hop gets an
// orchestrator carrying the relation tools synthesized for that agent.
func (r *Runtime) buildOrchestrator(cfg *config.AgentConfig) (*agent.Orchestrator, error) {
	relationTools, err := r.relationTools(cfg)
	if err != nil {
		return nil, err
	}

	return agent.New(cfg, r.runner,
		agent.WithHistory(r.historyStore),
		agent.WithCredentialResolver(r.creds),
		agent.WithFunctionTools(r.functionTools),
		agent.WithRelationTools(relationTools),
		agent.WithRecorder(r.recorder),
		agent.WithGraphPrompt(graphPrompt(r.project, cfg)),
		agent.WithTokenCounter(r.tokenCounter),
	)
}
