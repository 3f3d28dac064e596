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

package agenttool

import (
	"fmt"

	a2apb "github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/a2a"
	"github.com/parley-ai/parley/pkg/agent"
	"github.com/parley-ai/parley/pkg/auth"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/httpclient"
	"github.com/parley-ai/parley/pkg/tool"
)

func delegateSchema(targetName string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"request": map[string]any{
				"type":        "string",
				"description": "The task or request for the " + targetName + " agent",
			},
		},
		"required": []string{"request"},
	}
}

// InternalConfig configures a delegate tool targeting a sibling agent
// in the same process.
type InternalConfig struct {
	// Target is the sibling agent's configuration.
	Target *config.AgentConfig

	// Invoker runs the target agent to completion.
	Invoker agent.Invoker

	// History records the delegation exchange. Optional.
	History history.Store

	// Minter supplies service tokens when the calling turn is itself
	// team-routed. Required only for team deployments.
	Minter auth.TokenMinter
}

// internalDelegate invokes a sibling agent in-process and returns its
// answer as this tool's result.
type internalDelegate struct {
	cfg InternalConfig
}

// NewInternalDelegate builds the delegate tool for one sibling agent.
func NewInternalDelegate(cfg InternalConfig) (tool.CallableTool, error) {
	if cfg.Target == nil || cfg.Target.ID == "" {
		return nil, fmt.Errorf("delegate target agent is required")
	}
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("delegate to %s requires an invoker", cfg.Target.ID)
	}
	return &internalDelegate{cfg: cfg}, nil
}

func (d *internalDelegate) Name() string {
	return "delegate_to_" + d.cfg.Target.ID
}

func (d *internalDelegate) Description() string {
	desc := fmt.Sprintf("Delegate a subtask to the %s agent and receive its answer.", d.cfg.Target.ID)
	if d.cfg.Target.Description != "" {
		desc += " " + d.cfg.Target.Description
	}
	return desc
}

func (d *internalDelegate) Schema() map[string]any {
	return delegateSchema(d.cfg.Target.ID)
}

func (d *internalDelegate) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	request, ok := args["request"].(string)
	if !ok || request == "" {
		return nil, fmt.Errorf("request parameter must be a non-empty string")
	}

	execCtx, err := executionScope(ctx)
	if err != nil {
		return nil, err
	}
	targetID := d.cfg.Target.ID

	child := execCtx.Derive(targetID)
	if teamRouted(execCtx) {
		// The inherited credential is scoped to the calling agent.
		// Crossing into the target needs a token minted for exactly
		// this (origin, target) pair.
		if d.cfg.Minter == nil {
			return nil, fmt.Errorf("delegation from a team-routed turn requires a token minter")
		}
		token, err := d.cfg.Minter.Mint(auth.TokenScope{
			TenantID:      execCtx.TenantID,
			ProjectID:     execCtx.ProjectID,
			OriginAgentID: execCtx.AgentID,
			TargetAgentID: targetID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mint delegation token: %w", err)
		}
		child.Credentials = auth.Credentials{ServiceToken: token}
	}

	recordDelegation(ctx, d.cfg.History, execCtx, targetID, request, history.VisibilityInternal)

	result, err := d.cfg.Invoker.Invoke(ctx, child, targetID, request)
	if err != nil {
		return nil, err
	}

	recordDelegation(ctx, d.cfg.History, execCtx, targetID, result.Text, history.VisibilityInternal)

	out := map[string]any{
		"result":   result.Text,
		"agent_id": targetID,
	}
	if result.Object != nil {
		out["object"] = result.Object
	}
	return out, nil
}

// ExternalConfig configures a delegate tool targeting a remote agent
// over the A2A transport. A non-nil Team makes the call team-routed:
// routing headers identify tenant, project, and agents, and the
// credential is a freshly minted service token instead of a stored or
// inherited one.
type ExternalConfig struct {
	// External is the remote agent's endpoint configuration.
	External *config.ExternalAgentConfig

	// Headers are relation-level static headers, merged over the
	// external agent's own headers.
	Headers map[string]string

	// Team marks the relation as team-routed.
	Team *config.TeamDelegate

	// Credentials resolves the external agent's credential reference.
	Credentials *auth.Resolver

	// Minter supplies service tokens for team-routed calls.
	Minter auth.TokenMinter

	// History records the delegation exchange. Optional.
	History history.Store

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *httpclient.Client
}

type externalDelegate struct {
	cfg ExternalConfig
}

// NewExternalDelegate builds the delegate tool for one remote agent.
func NewExternalDelegate(cfg ExternalConfig) (tool.CallableTool, error) {
	if cfg.External == nil || cfg.External.ID == "" {
		return nil, fmt.Errorf("external delegate target is required")
	}
	if cfg.External.BaseURL == "" {
		return nil, fmt.Errorf("external agent %s has no base URL", cfg.External.ID)
	}
	if cfg.Team != nil && cfg.Minter == nil {
		return nil, fmt.Errorf("team delegation to %s requires a token minter", cfg.External.ID)
	}
	return &externalDelegate{cfg: cfg}, nil
}

func (d *externalDelegate) Name() string {
	return "delegate_to_" + d.cfg.External.ID
}

func (d *externalDelegate) Description() string {
	name := d.cfg.External.Name
	if name == "" {
		name = d.cfg.External.ID
	}
	desc := fmt.Sprintf("Delegate a subtask to the remote %s agent and receive its answer.", name)
	if d.cfg.External.Description != "" {
		desc += " " + d.cfg.External.Description
	}
	return desc
}

func (d *externalDelegate) Schema() map[string]any {
	return delegateSchema(d.cfg.External.ID)
}

// Call sends the request to the remote agent. A remote error object
// surfaces as an error carrying exactly the remote message; transport
// failures propagate unchanged.
func (d *externalDelegate) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	request, ok := args["request"].(string)
	if !ok || request == "" {
		return nil, fmt.Errorf("request parameter must be a non-empty string")
	}

	execCtx, err := executionScope(ctx)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for k, v := range d.cfg.External.Headers {
		headers[k] = v
	}
	for k, v := range d.cfg.Headers {
		headers[k] = v
	}

	token, err := d.resolveCredential(ctx, execCtx, headers)
	if err != nil {
		return nil, err
	}

	opts := []a2a.Option{a2a.WithHeaders(headers)}
	if token != "" {
		opts = append(opts, a2a.WithToken(token))
	}
	if d.cfg.HTTPClient != nil {
		opts = append(opts, a2a.WithHTTPClient(d.cfg.HTTPClient))
	}
	client := a2a.New(d.cfg.External.BaseURL, opts...)

	delegationID := uuid.NewString()
	msg := a2apb.NewMessage(a2apb.MessageRoleAgent, a2apb.TextPart{Text: request})
	msg.ContextID = execCtx.ConversationID
	msg.Metadata = map[string]any{
		"isDelegation": true,
		"delegationId": delegationID,
	}

	recordDelegation(ctx, d.cfg.History, execCtx, d.cfg.External.ID, request, history.VisibilityExternal)

	reply, err := client.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	text := replyText(reply)
	recordDelegation(ctx, d.cfg.History, execCtx, d.cfg.External.ID, text, history.VisibilityExternal)

	return map[string]any{
		"result":        text,
		"agent_id":      d.cfg.External.ID,
		"delegation_id": delegationID,
	}, nil
}

// resolveCredential decides what the outgoing call authenticates with.
// Team-routed calls mint a fresh token and attach routing headers.
// Plain external calls use the configured credential reference when one
// exists and fall back to the turn's inherited credential.
func (d *externalDelegate) resolveCredential(ctx tool.Context, execCtx *agent.ExecutionContext, headers map[string]string) (string, error) {
	if d.cfg.Team != nil {
		subAgent := d.cfg.Team.DefaultSubAgent
		if subAgent == "" {
			subAgent = d.cfg.External.ID
		}
		headers[HeaderTenantID] = execCtx.TenantID
		headers[HeaderProjectID] = execCtx.ProjectID
		headers[HeaderAgentID] = execCtx.AgentID
		headers[HeaderSubAgentID] = subAgent

		token, err := d.cfg.Minter.Mint(auth.TokenScope{
			TenantID:      execCtx.TenantID,
			ProjectID:     execCtx.ProjectID,
			OriginAgentID: execCtx.AgentID,
			TargetAgentID: d.cfg.External.ID,
		})
		if err != nil {
			return "", fmt.Errorf("failed to mint delegation token: %w", err)
		}
		return token, nil
	}

	refID := d.cfg.External.CredentialReferenceID
	if refID != "" && d.cfg.Credentials != nil && execCtx.Project != nil {
		secret, err := d.cfg.Credentials.Resolve(ctx, execCtx.Project.CredentialReferences[refID])
		if err != nil {
			return "", fmt.Errorf("failed to resolve credential for external agent %s: %w", d.cfg.External.ID, err)
		}
		return secret, nil
	}

	if h := execCtx.Credentials.AuthorizationHeader(); h != "" {
		headers["Authorization"] = h
	}
	return "", nil
}

func replyText(reply *a2apb.Message) string {
	if reply == nil {
		return ""
	}
	var text string
	for _, part := range reply.Parts {
		if tp, ok := part.(a2apb.TextPart); ok {
			if text != "" {
				text += "\n"
			}
			text += tp.Text
		}
	}
	return text
}

var (
	_ tool.CallableTool = (*internalDelegate)(nil)
	_ tool.CallableTool = (*externalDelegate)(nil)
)
