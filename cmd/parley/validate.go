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

	"github.com/parley-ai/parley/pkg/config"
)

// ValidateCmd loads and validates a project file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	project, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s is valid\n", cli.Config)
	fmt.Printf("  project: %s (tenant %s)\n", project.ProjectID, project.TenantID)
	fmt.Printf("  agents: %d", len(project.Agents))
	if project.DefaultAgent != "" {
		fmt.Printf(" (default: %s)", project.DefaultAgent)
	}
	fmt.Println()
	if len(project.ExternalAgents) > 0 {
		fmt.Printf("  external agents: %d\n", len(project.ExternalAgents))
	}
	return nil
}
