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

package agent

import (
	"github.com/parley-ai/parley/pkg/auth"
	"github.com/parley-ai/parley/pkg/config"
)

// ExecutionContext is the per-request scope of one user turn. It may
// span an internal delegation chain; delegation derives child contexts
// instead of mutating the parent. The project snapshot is read-only and
// shared across concurrent turns.
type ExecutionContext struct {
	// TenantID and ProjectID identify the owning scope.
	TenantID  string
	ProjectID string

	// AgentID is the currently active agent.
	AgentID string

	// SubAgentID is set when the turn runs inside a delegation chain.
	SubAgentID string

	// ConversationID keys history persistence.
	ConversationID string

	// Project is the resolved project snapshot: sibling agents,
	// external agents, credential references, artifact components.
	Project *config.Project

	// Credentials is the caller's auth material: the original API key
	// or a delegation-minted service token.
	Credentials auth.Credentials

	// ResolvedRef is the configuration version pointer this turn runs
	// against.
	ResolvedRef string

	// TeamDelegation marks a context that arrived through team routing.
	// Further internal delegation from such a context mints a fresh
	// service token instead of reusing the inherited credential.
	TeamDelegation bool

	// Metadata carries request metadata as received.
	Metadata map[string]any
}

// Derive returns a child context scoped to the target agent for an
// internal delegation. The parent is not modified.
func (e *ExecutionContext) Derive(targetAgentID string) *ExecutionContext {
	child := *e
	child.SubAgentID = targetAgentID
	return &child
}
