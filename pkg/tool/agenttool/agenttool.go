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

// Package agenttool builds the tools an agent uses to move work to
// other agents: transfer tools that hand off the rest of the
// conversation, and delegate tools that invoke another agent as a
// sub-routine and return its answer as a tool result.
//
// A transfer tool is a pure signal. Calling it sets the handoff action
// on the tool context; the orchestrator enacts the switch and the
// calling agent produces no further output in that turn. Delegate
// tools do the work themselves: the internal variant runs a sibling
// agent in-process on a derived execution context, the external
// variant sends an A2A message to a remote agent.
package agenttool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/agent"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/tool"
)

// Routing headers attached to team-routed delegate calls so the
// receiving gateway can route without re-parsing the service token.
const (
	HeaderTenantID   = "x-parley-tenant-id"
	HeaderProjectID  = "x-parley-project-id"
	HeaderAgentID    = "x-parley-agent-id"
	HeaderSubAgentID = "x-parley-sub-agent-id"
)

// transferTool signals a control handoff to one target agent. It never
// calls a model or produces an answer itself.
type transferTool struct {
	target *config.AgentConfig
}

// NewTransfer builds the transfer tool for one target agent.
func NewTransfer(target *config.AgentConfig) (tool.CallableTool, error) {
	if target == nil || target.ID == "" {
		return nil, fmt.Errorf("transfer target agent is required")
	}
	return &transferTool{target: target}, nil
}

func (t *transferTool) Name() string {
	return "transfer_to_" + t.target.ID
}

func (t *transferTool) Description() string {
	desc := fmt.Sprintf("Hand off the rest of the conversation to the %s agent.", t.target.ID)
	if t.target.Description != "" {
		desc += " " + t.target.Description
	}
	return desc
}

func (t *transferTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{
				"type":        "string",
				"description": "Why the conversation is being handed off",
			},
		},
	}
}

// Call marks the handoff and returns. Any text content the model
// produced alongside this call is discarded by the orchestrator.
func (t *transferTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	actions := ctx.Actions()
	if actions == nil {
		return nil, fmt.Errorf("transfer tool requires an action record on the tool context")
	}
	actions.TransferToAgent = t.target.ID

	return map[string]any{
		"result": "transferring conversation to " + t.target.ID,
	}, nil
}

// executionScope pulls the turn scope out of a tool context. Relation
// tools only run inside orchestrator-built contexts; anything else is
// a wiring error.
func executionScope(ctx tool.Context) (*agent.ExecutionContext, error) {
	carrier, ok := ctx.(agent.ContextCarrier)
	if !ok {
		return nil, fmt.Errorf("tool context does not carry an execution context")
	}
	execCtx := carrier.ExecutionContext()
	if execCtx == nil {
		return nil, fmt.Errorf("tool context carries a nil execution context")
	}
	return execCtx, nil
}

// teamRouted reports whether the current turn itself arrived through
// team routing. Delegation from such a turn must not reuse the
// inherited credential across the next agent boundary.
func teamRouted(execCtx *agent.ExecutionContext) bool {
	if execCtx.TeamDelegation {
		return true
	}
	v, ok := execCtx.Metadata["teamDelegation"].(bool)
	return ok && v
}

// recordDelegation persists one side of a delegation exchange. History
// failures never fail the delegation itself.
func recordDelegation(ctx context.Context, store history.Store, execCtx *agent.ExecutionContext, subAgentID, content, visibility string) {
	if store == nil {
		return
	}
	err := store.Append(ctx, history.Message{
		ID:             uuid.NewString(),
		TenantID:       execCtx.TenantID,
		ProjectID:      execCtx.ProjectID,
		ConversationID: execCtx.ConversationID,
		Role:           "agent",
		Content:        content,
		Visibility:     visibility,
		SubAgentID:     subAgentID,
	})
	if err != nil {
		slog.Warn("failed to record delegation message",
			"sub_agent_id", subAgentID,
			"visibility", visibility,
			"error", err)
	}
}

var _ tool.CallableTool = (*transferTool)(nil)
