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

package runtime

import (
	"fmt"
	"strings"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tool"
	"github.com/parley-ai/parley/pkg/tool/agenttool"
)

// relationTools synthesizes the transfer and delegate tools an agent's
// relation declarations name. An unresolvable relation target is a
// configuration error and fails orchestrator construction; relations
// are not additive sources.
func (r *Runtime) relationTools(cfg *config.AgentConfig) ([]tool.Tool, error) {
	var tools []tool.Tool

	for _, targetID := range cfg.TransferRelations {
		target, err := r.project.Agent(targetID)
		if err != nil {
			return nil, fmt.Errorf("agent %s transfer relation: %w", cfg.ID, err)
		}
		transfer, err := agenttool.NewTransfer(target)
		if err != nil {
			return nil, err
		}
		tools = append(tools, transfer)
	}

	for _, dt := range cfg.DelegateRelations {
		delegate, err := r.delegateTool(cfg, dt)
		if err != nil {
			return nil, fmt.Errorf("agent %s delegate relation: %w", cfg.ID, err)
		}
		tools = append(tools, delegate)
	}

	return tools, nil
}

func (r *Runtime) delegateTool(cfg *config.AgentConfig, dt config.DelegateTarget) (tool.CallableTool, error) {
	switch dt.Type {
	case config.DelegateInternal:
		target, err := r.project.Agent(dt.Internal.Agent)
		if err != nil {
			return nil, err
		}
		return agenttool.NewInternalDelegate(agenttool.InternalConfig{
			Target:  target,
			Invoker: r.registry,
			History: r.historyStore,
			Minter:  r.minter,
		})

	case config.DelegateExternal:
		external, ok := r.project.ExternalAgents[dt.External.ExternalAgent]
		if !ok {
			return nil, fmt.Errorf("external agent %q not found", dt.External.ExternalAgent)
		}
		return agenttool.NewExternalDelegate(agenttool.ExternalConfig{
			External:    external,
			Headers:     dt.External.Headers,
			Credentials: r.creds,
			History:     r.historyStore,
			HTTPClient:  r.httpClient,
		})

	case config.DelegateTeam:
		external, ok := r.project.ExternalAgents[dt.Team.ExternalAgent]
		if !ok {
			return nil, fmt.Errorf("team gateway %q not found", dt.Team.ExternalAgent)
		}
		return agenttool.NewExternalDelegate(agenttool.ExternalConfig{
			External:   external,
			Team:       dt.Team,
			Minter:     r.minter,
			History:    r.historyStore,
			HTTPClient: r.httpClient,
		})

	default:
		return nil, fmt.Errorf("unknown delegate type %q", dt.Type)
	}
}

// graphPrompt renders the agent's place in the project topology for
// the prompt's graph section. Agents with no relations get none.
func graphPrompt(project *config.Project, cfg *config.AgentConfig) string {
	if len(cfg.TransferRelations) == 0 && len(cfg.DelegateRelations) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent", cfg.ID)
	if project.Name != "" {
		fmt.Fprintf(&b, " in the %s project", project.Name)
	}
	b.WriteString(".")

	if len(cfg.TransferRelations) > 0 {
		b.WriteString("\nAgents you can transfer the conversation to:")
		for _, id := range cfg.TransferRelations {
			fmt.Fprintf(&b, "\n- %s", id)
			if target, err := project.Agent(id); err == nil && target.Description != "" {
				fmt.Fprintf(&b, ": %s", target.Description)
			}
		}
	}

	if len(cfg.DelegateRelations) > 0 {
		b.WriteString("\nAgents you can delegate subtasks to:")
		for _, dt := range cfg.DelegateRelations {
			switch dt.Type {
			case config.DelegateInternal:
				fmt.Fprintf(&b, "\n- %s", dt.Internal.Agent)
				if target, err := project.Agent(dt.Internal.Agent); err == nil && target.Description != "" {
					fmt.Fprintf(&b, ": %s", target.Description)
				}
			case config.DelegateExternal:
				fmt.Fprintf(&b, "\n- %s (remote)", dt.External.ExternalAgent)
				if ext, ok := project.ExternalAgents[dt.External.ExternalAgent]; ok && ext.Description != "" {
					fmt.Fprintf(&b, ": %s", ext.Description)
				}
			case config.DelegateTeam:
				fmt.Fprintf(&b, "\n- %s (team)", dt.Team.ExternalAgent)
				if ext, ok := project.ExternalAgents[dt.Team.ExternalAgent]; ok && ext.Description != "" {
					fmt.Fprintf(&b, ": %s", ext.Description)
				}
			}
		}
	}

	return b.String()
}
