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

// Package config defines the declarative project and agent configuration.
// Loose YAML maps are decoded and validated once at the boundary; the rest
// of the engine only sees strongly typed values.
package config

import (
	"fmt"
)

// Project is the resolved configuration snapshot one turn executes against:
// every sibling agent, external agent, and credential reference in scope.
// Read-only after loading; shared across concurrent turns.
type Project struct {
	// TenantID identifies the owning tenant.
	TenantID string `yaml:"tenant_id" json:"tenantId"`

	// ProjectID identifies the project within the tenant.
	ProjectID string `yaml:"project_id" json:"projectId"`

	// Name is the display name of the project.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// DefaultAgent is the agent id a turn starts on when the caller
	// does not name one.
	DefaultAgent string `yaml:"default_agent,omitempty" json:"defaultAgent,omitempty"`

	// Agents maps agent id to its configuration.
	Agents map[string]*AgentConfig `yaml:"agents" json:"agents"`

	// ExternalAgents maps external agent id to its remote endpoint
	// configuration, targets of external delegation.
	ExternalAgents map[string]*ExternalAgentConfig `yaml:"external_agents,omitempty" json:"externalAgents,omitempty"`

	// CredentialReferences maps credential reference id to its lookup
	// coordinates in a credential store.
	CredentialReferences map[string]*CredentialReference `yaml:"credential_references,omitempty" json:"credentialReferences,omitempty"`

	// ArtifactComponents is the full project-scoped component list.
	// Artifact type lookups prefer this list over any agent-scoped subset.
	ArtifactComponents []ArtifactComponent `yaml:"artifact_components,omitempty" json:"artifactComponents,omitempty"`
}

// Agent returns the agent with the given id.
func (p *Project) Agent(id string) (*AgentConfig, error) {
	agent, ok := p.Agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %q not found in project %q", id, p.ProjectID)
	}
	return agent, nil
}

// ArtifactComponent returns the project-scoped component with the given
// name, or nil when no component matches.
func (p *Project) ArtifactComponent(name string) *ArtifactComponent {
	for i := range p.ArtifactComponents {
		if p.ArtifactComponents[i].Name == name {
			return &p.ArtifactComponents[i]
		}
	}
	return nil
}

// SetDefaults fills derived and defaulted fields after decoding.
func (p *Project) SetDefaults() {
	for id, agent := range p.Agents {
		if agent == nil {
			continue
		}
		if agent.ID == "" {
			agent.ID = id
		}
		agent.SetDefaults()
	}
	for id, external := range p.ExternalAgents {
		if external != nil && external.ID == "" {
			external.ID = id
		}
	}
	for id, ref := range p.CredentialReferences {
		if ref != nil && ref.ID == "" {
			ref.ID = id
		}
	}
	if p.DefaultAgent == "" && len(p.Agents) == 1 {
		for id := range p.Agents {
			p.DefaultAgent = id
		}
	}
}

// Validate checks the project for structural errors: missing identity,
// dangling relation targets, malformed delegate variants.
func (p *Project) Validate() error {
	if p.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if p.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if len(p.Agents) == 0 {
		return fmt.Errorf("project %q declares no agents", p.ProjectID)
	}
	if p.DefaultAgent != "" {
		if _, ok := p.Agents[p.DefaultAgent]; !ok {
			return fmt.Errorf("default_agent %q not found", p.DefaultAgent)
		}
	}

	for id, agent := range p.Agents {
		if agent == nil {
			return fmt.Errorf("agent %q has no configuration", id)
		}
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", id, err)
		}
		for _, target := range agent.TransferRelations {
			if _, ok := p.Agents[target]; !ok {
				return fmt.Errorf("agent %q: transfer target %q not found", id, target)
			}
		}
		for i, dt := range agent.DelegateRelations {
			if err := p.validateDelegate(id, dt); err != nil {
				return fmt.Errorf("agent %q: delegate relation %d: %w", id, i, err)
			}
		}
		for _, ref := range agent.Tools {
			if ref.CredentialReferenceID != "" {
				if _, ok := p.CredentialReferences[ref.CredentialReferenceID]; !ok {
					return fmt.Errorf("agent %q: tool %q: credential reference %q not found",
						id, ref.Name, ref.CredentialReferenceID)
				}
			}
		}
	}

	seen := make(map[string]bool, len(p.ArtifactComponents))
	for _, ac := range p.ArtifactComponents {
		if ac.Name == "" {
			return fmt.Errorf("artifact component without a name")
		}
		if seen[ac.Name] {
			return fmt.Errorf("duplicate artifact component %q", ac.Name)
		}
		seen[ac.Name] = true
	}

	return nil
}

func (p *Project) validateDelegate(agentID string, dt DelegateTarget) error {
	if err := dt.Validate(); err != nil {
		return err
	}
	switch dt.Type {
	case DelegateInternal:
		if _, ok := p.Agents[dt.Internal.Agent]; !ok {
			return fmt.Errorf("internal target %q not found", dt.Internal.Agent)
		}
		if dt.Internal.Agent == agentID {
			return fmt.Errorf("agent cannot delegate to itself")
		}
	case DelegateExternal:
		if _, ok := p.ExternalAgents[dt.External.ExternalAgent]; !ok {
			return fmt.Errorf("external target %q not found", dt.External.ExternalAgent)
		}
	case DelegateTeam:
		if _, ok := p.ExternalAgents[dt.Team.ExternalAgent]; !ok {
			return fmt.Errorf("team target %q not found", dt.Team.ExternalAgent)
		}
	}
	return nil
}

// ExternalAgentConfig describes a remote agent reachable over the A2A
// transport.
type ExternalAgentConfig struct {
	// ID identifies the external agent within the project.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Name is the display name used in delegate tool descriptions.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description describes what the remote agent does.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// BaseURL is the remote endpoint the A2A client binds to.
	BaseURL string `yaml:"base_url" json:"baseUrl"`

	// CredentialReferenceID optionally names a stored credential used to
	// authenticate outgoing calls.
	CredentialReferenceID string `yaml:"credential_reference_id,omitempty" json:"credentialReferenceId,omitempty"`

	// Headers are static headers attached to every outgoing call.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// CredentialReference points at a credential in a credential store.
type CredentialReference struct {
	// ID identifies the reference within the project.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Store names the credential store holding the secret.
	Store string `yaml:"store" json:"store"`

	// Key is the lookup key within the store.
	Key string `yaml:"key" json:"key"`
}
