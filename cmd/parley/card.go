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

package main

import (
	"fmt"
	"strings"

	"github.com/parley-ai/parley/pkg/config"
)

// CardCmd prints one agent's configuration summary.
type CardCmd struct {
	Agent string `help:"Agent id (defaults to the project's default agent)."`
}

func (c *CardCmd) Run(cli *CLI) error {
	project, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	agentID := c.Agent
	if agentID == "" {
		agentID = project.DefaultAgent
	}
	agent, err := project.Agent(agentID)
	if err != nil {
		return err
	}

	fmt.Println(renderCard(project, agent))
	return nil
}

func renderCard(project *config.Project, agent *config.AgentConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s", agent.ID)
	if agent.Name != "" && agent.Name != agent.ID {
		fmt.Fprintf(&b, " (%s)", agent.Name)
	}
	b.WriteString("\n")
	if agent.Description != "" {
		fmt.Fprintf(&b, "  %s\n", agent.Description)
	}

	if agent.Models.Base != nil {
		fmt.Fprintf(&b, "  model: %s", agent.Models.Base.Model)
		if s := agent.Models.ForStructuredOutput(); s != agent.Models.Base {
			fmt.Fprintf(&b, " (structured: %s)", s.Model)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  history: %s\n", agent.ConversationHistory.Mode)

	if len(agent.Tools) > 0 {
		var names []string
		for _, ref := range agent.Tools {
			names = append(names, ref.Name)
		}
		fmt.Fprintf(&b, "  mcp servers: %s\n", strings.Join(names, ", "))
	}
	if len(agent.FunctionTools) > 0 {
		fmt.Fprintf(&b, "  function tools: %s\n", strings.Join(agent.FunctionTools, ", "))
	}
	if len(agent.Skills) > 0 {
		fmt.Fprintf(&b, "  skills: %d\n", len(agent.Skills))
	}
	if len(agent.DataComponents) > 0 {
		var names []string
		for _, dc := range agent.DataComponents {
			names = append(names, dc.Name)
		}
		fmt.Fprintf(&b, "  data components: %s\n", strings.Join(names, ", "))
	}
	if len(agent.ArtifactComponents) > 0 {
		var names []string
		for _, ac := range agent.ArtifactComponents {
			names = append(names, ac.Name)
		}
		fmt.Fprintf(&b, "  artifact components: %s\n", strings.Join(names, ", "))
	}
	if len(agent.TransferRelations) > 0 {
		fmt.Fprintf(&b, "  transfers to: %s\n", strings.Join(agent.TransferRelations, ", "))
	}
	for _, dt := range agent.DelegateRelations {
		switch dt.Type {
		case config.DelegateInternal:
			fmt.Fprintf(&b, "  delegates to: %s\n", dt.Internal.Agent)
		case config.DelegateExternal:
			fmt.Fprintf(&b, "  delegates to: %s (remote)\n", dt.External.ExternalAgent)
		case config.DelegateTeam:
			fmt.Fprintf(&b, "  delegates to: %s (team)\n", dt.Team.ExternalAgent)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}
