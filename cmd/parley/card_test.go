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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-ai/parley/pkg/config"
)

func TestRenderCard(t *testing.T) {
	project := &config.Project{
		TenantID:  "tenant-1",
		ProjectID: "project-1",
	}
	agent := &config.AgentConfig{
		ID:          "billing",
		Name:        "Billing",
		Description: "Handles invoices and refunds.",
		Models: config.ModelSettings{
			Base: &config.ModelConfig{Model: "gpt-4o"},
		},
		FunctionTools:     []string{"lookup_invoice"},
		TransferRelations: []string{"front"},
		DelegateRelations: []config.DelegateTarget{{
			Type:     config.DelegateExternal,
			External: &config.ExternalDelegate{ExternalAgent: "analyst"},
		}},
		ConversationHistory: config.ConversationHistoryConfig{Mode: config.HistoryFull},
	}

	card := renderCard(project, agent)
	assert.Contains(t, card, "billing (Billing)")
	assert.Contains(t, card, "Handles invoices and refunds.")
	assert.Contains(t, card, "model: gpt-4o")
	assert.Contains(t, card, "function tools: lookup_invoice")
	assert.Contains(t, card, "transfers to: front")
	assert.Contains(t, card, "delegates to: analyst (remote)")
}
