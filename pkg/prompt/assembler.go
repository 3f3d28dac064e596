package prompt

import (
	"fmt"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tokens"
	"github.com/parley-ai/parley/pkg/tool"
)

// ToolGroup is one MCP server's resolved tools plus its server-level
// instructions.
type ToolGroup struct {
	Server       string
	Instructions string
	Tools        []tool.Data
}

// Config is everything the assembler renders from. Built by the
// orchestrator per turn; the assembler never mutates it.
type Config struct {
	// CorePrompt is the agent's core instructions.
	CorePrompt string

	// GraphPrompt describes the agent topology the agent sits in.
	GraphPrompt string

	// CurrentTime is a client-supplied timestamp. Empty omits the
	// section entirely.
	CurrentTime string

	// Tools are the resolved standalone tools.
	Tools []tool.Data

	// ToolGroups are MCP-server-grouped tool sets.
	ToolGroups []ToolGroup

	// Skills are the agent's loadable instruction blocks.
	Skills []config.Skill

	// DataComponents enable the structured second pass.
	DataComponents []config.DataComponent

	// Artifacts are the citations already created this conversation.
	Artifacts []*artifact.Artifact

	// ArtifactComponents are the agent's own citation types.
	ArtifactComponents []config.ArtifactComponent

	// ProjectArtifactComponents is the full, unfiltered project list.
	// Artifact type schema lookups prefer it over the agent subset.
	ProjectArtifactComponents []config.ArtifactComponent

	// HasAgentArtifactComponents reports whether the effective agent or
	// any sibling it inherits artifacts from declares components.
	HasAgentArtifactComponents bool

	// HasTransferRelations renders the transfer instruction block.
	HasTransferRelations bool

	// HasDelegateRelations renders the delegation instruction block.
	HasDelegateRelations bool
}

// Breakdown is the per-section token-cost report. Estimated with a
// simple length-based estimator; reported for observability, never used
// to enforce a budget.
type Breakdown struct {
	Sections map[string]int `json:"sections"`
	Total    int            `json:"total"`
}

// Result is the assembled prompt plus its breakdown.
type Result struct {
	Prompt    string
	Breakdown Breakdown
}

var builders = []sectionBuilder{
	{"CORE_INSTRUCTIONS", buildCoreInstructions},
	{"GRAPH_PROMPT", buildGraphPrompt},
	{"CURRENT_TIME", buildCurrentTime},
	{"TOOLS", buildTools},
	{"SKILLS", buildSkills},
	{"DATA_COMPONENTS", buildDataComponents},
	{"ARTIFACTS", buildArtifacts},
	{"TRANSFER_INSTRUCTIONS", buildTransferInstructions},
	{"DELEGATION_INSTRUCTIONS", buildDelegationInstructions},
}

// Assemble renders the system prompt and its token-cost breakdown.
// A nil configuration is rejected before any computation begins.
func Assemble(cfg *Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("prompt assembly requires a configuration")
	}

	rendered, sections := fill(systemPromptTemplate, builders, cfg)

	breakdown := Breakdown{Sections: make(map[string]int, len(sections))}
	for name, content := range sections {
		cost := tokens.Estimate(content)
		breakdown.Sections[name] = cost
		breakdown.Total += cost
	}

	return &Result{Prompt: rendered, Breakdown: breakdown}, nil
}
