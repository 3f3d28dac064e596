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

package config

import "fmt"

// AgentConfig configures one agent. Immutable per generation call; the
// engine never mutates it.
type AgentConfig struct {
	// ID identifies the agent within the project.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Name is the display name of the agent.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description describes what the agent does. Used in transfer and
	// delegate tool descriptions shown to sibling agents.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Prompt is the agent's core instructions.
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`

	// Models holds per-role model settings.
	Models ModelSettings `yaml:"models,omitempty" json:"models,omitempty"`

	// Tools lists MCP tool references this agent can use.
	Tools []MCPToolRef `yaml:"tools,omitempty" json:"tools,omitempty"`

	// FunctionTools lists locally registered function tool names.
	FunctionTools []string `yaml:"function_tools,omitempty" json:"functionTools,omitempty"`

	// DataComponents are the named structured-output shapes. Configuring
	// any of them enables the schema-constrained second generation pass.
	DataComponents []DataComponent `yaml:"data_components,omitempty" json:"dataComponents,omitempty"`

	// ArtifactComponents are the citation types this agent may create.
	ArtifactComponents []ArtifactComponent `yaml:"artifact_components,omitempty" json:"artifactComponents,omitempty"`

	// Skills are loadable instruction blocks.
	Skills []Skill `yaml:"skills,omitempty" json:"skills,omitempty"`

	// TransferRelations lists agent ids control may be handed to.
	TransferRelations []string `yaml:"transfer_relations,omitempty" json:"transferRelations,omitempty"`

	// DelegateRelations lists delegation targets.
	DelegateRelations []DelegateTarget `yaml:"delegate_relations,omitempty" json:"delegateRelations,omitempty"`

	// ConversationHistory controls how prior turns are gathered.
	ConversationHistory ConversationHistoryConfig `yaml:"conversation_history,omitempty" json:"conversationHistory,omitempty"`
}

// SetDefaults fills defaulted fields after decoding.
func (a *AgentConfig) SetDefaults() {
	if a.Name == "" {
		a.Name = a.ID
	}
	if a.ConversationHistory.Mode == "" {
		a.ConversationHistory.Mode = HistoryFull
	}
}

// Validate checks agent-local structure. Cross-agent references are
// validated by Project.Validate.
func (a *AgentConfig) Validate() error {
	if a.Models.Base == nil || a.Models.Base.Model == "" {
		return fmt.Errorf("models.base.model is required")
	}
	switch a.ConversationHistory.Mode {
	case HistoryNone, HistoryFull, HistoryScoped:
	default:
		return fmt.Errorf("invalid conversation_history.mode %q", a.ConversationHistory.Mode)
	}
	seen := make(map[string]bool, len(a.DataComponents))
	for _, dc := range a.DataComponents {
		if dc.Name == "" {
			return fmt.Errorf("data component without a name")
		}
		if seen[dc.Name] {
			return fmt.Errorf("duplicate data component %q", dc.Name)
		}
		seen[dc.Name] = true
	}
	for _, ref := range a.Tools {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("tool %q: %w", ref.Name, err)
		}
	}
	return nil
}

// HasDataComponents reports whether the structured second pass runs.
func (a *AgentConfig) HasDataComponents() bool {
	return len(a.DataComponents) > 0
}

// ModelSettings holds per-role model configurations. StructuredOutput and
// Summarizer fall back to Base when absent.
type ModelSettings struct {
	// Base is the model used for the unconstrained reasoning pass.
	Base *ModelConfig `yaml:"base,omitempty" json:"base,omitempty"`

	// StructuredOutput is the model used for the schema-constrained pass.
	StructuredOutput *ModelConfig `yaml:"structured_output,omitempty" json:"structuredOutput,omitempty"`

	// Summarizer is the model used for history compression.
	Summarizer *ModelConfig `yaml:"summarizer,omitempty" json:"summarizer,omitempty"`
}

// ForStructuredOutput returns the structured-output model, falling back
// to the base model.
func (m ModelSettings) ForStructuredOutput() *ModelConfig {
	if m.StructuredOutput != nil && m.StructuredOutput.Model != "" {
		return m.StructuredOutput
	}
	return m.Base
}

// ForSummarizer returns the summarizer model, falling back to the base
// model.
func (m ModelSettings) ForSummarizer() *ModelConfig {
	if m.Summarizer != nil && m.Summarizer.Model != "" {
		return m.Summarizer
	}
	return m.Base
}

// ModelConfig identifies a model and its provider options.
type ModelConfig struct {
	// Model is the model identifier, e.g. "gpt-4o".
	Model string `yaml:"model" json:"model"`

	// ContextWindow is the model's context window in tokens. Zero means
	// unknown; the compression policy then falls back to environment or
	// hard-coded defaults.
	ContextWindow int `yaml:"context_window,omitempty" json:"contextWindow,omitempty"`

	// Options carries provider-specific settings passed through to the
	// model runner untouched.
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// DataComponent names a structured-output shape the second pass emits.
type DataComponent struct {
	// Name identifies the component.
	Name string `yaml:"name" json:"name"`

	// Description tells the model when to emit this component.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Props is a JSON-Schema-like object describing the component payload.
	Props map[string]any `yaml:"props,omitempty" json:"props,omitempty"`
}

// ArtifactComponent names a citation type. Leaf properties of Props carry
// an inPreview flag defining the preview/full split.
type ArtifactComponent struct {
	// Name identifies the component; Artifact.Type refers to it.
	Name string `yaml:"name" json:"name"`

	// Description tells the model what this citation type captures.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Props is a JSON-Schema object whose leaf properties each carry
	// inPreview.
	Props map[string]any `yaml:"props,omitempty" json:"props,omitempty"`
}

// Skill is a loadable instruction block. Skills with AlwaysLoaded render
// inline with full content; others render as a discoverable outline the
// model expands via the load_skill tool.
type Skill struct {
	// Name identifies the skill.
	Name string `yaml:"name" json:"name"`

	// Description summarizes the skill in the outline.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Content is the full skill text.
	Content string `yaml:"content,omitempty" json:"content,omitempty"`

	// AlwaysLoaded renders the full content inline.
	AlwaysLoaded bool `yaml:"always_loaded,omitempty" json:"alwaysLoaded,omitempty"`

	// Index orders skills; lower loads first, higher weighs more in
	// conflicts. Equal indexes keep their declaration order.
	Index int `yaml:"index,omitempty" json:"index,omitempty"`
}

// Conversation history modes.
const (
	HistoryNone   = "none"   // skip history entirely
	HistoryFull   = "full"   // complete, optionally compressed history
	HistoryScoped = "scoped" // sub-agent/task-scoped history
)

// ConversationHistoryConfig controls history gathering for a turn.
type ConversationHistoryConfig struct {
	// Mode is one of none, full, scoped.
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// Limit caps the number of prior messages considered. Zero means
	// no cap.
	Limit int `yaml:"limit,omitempty" json:"limit,omitempty"`
}
